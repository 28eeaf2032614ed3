package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWireFormat(t *testing.T) {
	testCases := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{
			"navigate",
			Navigate{URL: "/view/docs-1a2b/sub/b.md"},
			`{"type":"navigate","url":"/view/docs-1a2b/sub/b.md"}`,
		},
		{
			"scroll",
			Scroll{Percent: 42},
			`{"type":"scroll","percent":42}`,
		},
		{
			"scroll zero percent kept",
			Scroll{Percent: 0},
			`{"type":"scroll","percent":0}`,
		},
		{
			"focus",
			Focus{WorkspaceID: "docs-1a2b", FilePath: "sub/b.md"},
			`{"type":"focus","workspace_id":"docs-1a2b","file_path":"sub/b.md"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tc.expected, string(data))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	commands := []Command{
		Navigate{URL: "/view/x-0001"},
		Scroll{Percent: 100},
		Focus{WorkspaceID: "x-0001", FilePath: "README.md"},
	}

	for _, cmd := range commands {
		data, err := Encode(cmd)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

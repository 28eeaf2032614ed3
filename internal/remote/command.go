// Package remote defines the commands an editor or viewer can push to
// every connected browser: navigate to a URL, sync scroll position, or
// focus a file inside a workspace. Commands are transient signals with no
// retained state; a late subscriber simply misses earlier ones.
package remote

import (
	"encoding/json"
	"fmt"
)

// Command is the tagged union carried on the command bus.
type Command interface {
	// Kind returns the wire tag ("navigate", "scroll", "focus").
	Kind() string
}

// Navigate tells viewers to load a URL.
type Navigate struct {
	URL string `json:"url"`
}

// Scroll mirrors the editor's scroll position as a percentage, 0-100.
type Scroll struct {
	Percent int `json:"percent"`
}

// Focus identifies the file the editor currently has open.
type Focus struct {
	WorkspaceID string `json:"workspace_id"`
	FilePath    string `json:"file_path"`
}

func (Navigate) Kind() string { return "navigate" }
func (Scroll) Kind() string   { return "scroll" }
func (Focus) Kind() string    { return "focus" }

type envelope struct {
	Type string `json:"type"`
}

// Encode serializes a command as a tagged JSON object, for example
// {"type":"navigate","url":"/view/docs-1a2b/a.md"}.
func Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case Navigate:
		return json.Marshal(struct {
			envelope
			Navigate
		}{envelope{c.Kind()}, c})
	case Scroll:
		return json.Marshal(struct {
			envelope
			Scroll
		}{envelope{c.Kind()}, c})
	case Focus:
		return json.Marshal(struct {
			envelope
			Focus
		}{envelope{c.Kind()}, c})
	default:
		return nil, fmt.Errorf("unknown command type %T", cmd)
	}
}

// Decode parses a tagged JSON object back into a command.
func Decode(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "navigate":
		var c Navigate
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case "scroll":
		var c Scroll
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case "focus":
		var c Focus
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown command tag %q", env.Type)
	}
}

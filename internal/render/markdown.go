// Package render converts markdown source into HTML fragments for the view
// layer. It is a pure transform: bytes in, HTML out, no filesystem or
// registry access.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML with tables, footnotes, strikethrough,
// and task lists enabled.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a markdown renderer. Raw HTML in documents is passed through,
// matching the expectations of a local preview tool.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Render converts markdown source into an HTML fragment.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

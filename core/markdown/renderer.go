// Package markdown renders letter text to HTML for the editor preview.
package markdown

import (
	"bytes"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Style is the text formatting toggled in the editor. It applies to the
// whole letter.
type Style struct {
	Bold   bool `json:"bold"`
	Italic bool `json:"italic"`
}

// CSS returns the inline declarations for s, or "" for plain text.
func (s Style) CSS() string {
	var css string
	if s.Bold {
		css += "font-weight: bold;"
	}
	if s.Italic {
		if css != "" {
			css += " "
		}
		css += "font-style: italic;"
	}
	return css
}

// Renderer converts letter text to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer. Raw HTML in letters is escaped.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(), // letters keep their line breaks
			gmhtml.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

// Render converts Markdown to HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderLetter renders text inside a letter container carrying style.
func (r *Renderer) RenderLetter(text string, style Style) (string, error) {
	body, err := r.Render([]byte(text))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="letter"`)
	if css := style.CSS(); css != "" {
		buf.WriteString(` style="`)
		buf.WriteString(html.EscapeString(css))
		buf.WriteString(`"`)
	}
	buf.WriteString(">\n")
	buf.Write(body)
	buf.WriteString("</div>\n")
	return buf.String(), nil
}

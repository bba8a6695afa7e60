package views

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/topicblog/sanitize"
)

// Content renders an article body. HTML-mode content was sanitized during
// assembly and is written verbatim. Text-mode content is escaped once (the
// sanitizer already encoded its entities) and split into paragraphs on blank
// lines.
func Content(c sanitize.Content) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if c.IsZero() {
			return nil
		}
		if c.IsHTML() {
			_, err := io.WriteString(w, c.String())
			return err
		}
		var b strings.Builder
		for _, para := range strings.Split(strings.ReplaceAll(c.String(), "\r\n", "\n"), "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(strings.ReplaceAll(html.EscapeString(html.UnescapeString(para)), "\n", "<br>"))
			b.WriteString("</p>")
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

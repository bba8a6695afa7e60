// Package sanitize filters untrusted rich text coming from the content
// backend so it can be injected into a page verbatim.
//
// Tags outside the allow-list are unwrapped: the tag goes, its text stays.
// The bodies of executable tags (script by default) are dropped entirely.
// Output is canonical, so sanitizing it again returns it unchanged.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Mode tells the view how a cleaned string must be rendered.
type Mode int

const (
	// ModeText renders the string as escaped text.
	ModeText Mode = iota
	// ModeHTML injects the string as raw markup.
	ModeHTML
)

func (m Mode) String() string {
	if m == ModeHTML {
		return "html"
	}
	return "text"
}

// Content is the result of a single sanitization pass together with the
// render mode decided for it. The zero value is empty text.
//
// Content can only be produced by Clean, which keeps sanitization at exactly
// one place in the pipeline.
type Content struct {
	value string
	mode  Mode
}

// String returns the cleaned markup.
func (c Content) String() string { return c.value }

// Mode returns the render mode recorded at sanitization time.
func (c Content) Mode() Mode { return c.mode }

// IsHTML reports whether the content must be injected as raw markup.
func (c Content) IsHTML() bool { return c.mode == ModeHTML }

// IsZero reports whether there is nothing to render.
func (c Content) IsZero() bool { return c.value == "" }

// DetectMode picks the render mode for already cleaned markup. Any closing
// tag marker switches to raw HTML; this is a substring check, not a parse,
// so markup made only of void or unclosed tags is rendered as text.
func DetectMode(clean string) Mode {
	if strings.Contains(clean, "</") {
		return ModeHTML
	}
	return ModeText
}

var defaultPolicy = DefaultPolicy()

// Sanitize cleans s with the default policy.
func Sanitize(s string) string { return defaultPolicy.Sanitize(s) }

// Clean sanitizes s with the default policy and records its render mode.
func Clean(s string) Content { return defaultPolicy.Clean(s) }

// Clean sanitizes s and records its render mode.
func (p *Policy) Clean(s string) Content {
	out := p.Sanitize(s)
	return Content{value: out, mode: DetectMode(out)}
}

// Sanitize returns s with every disallowed tag, attribute and comment
// removed. It never fails: malformed markup degrades to escaped text.
func (p *Policy) Sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	// name of the tag whose body is being discarded, "" when emitting
	dropping := ""
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF; a strings.Reader has no other failure mode
			return b.String()
		}
		tok := z.Token()

		if dropping != "" {
			if tt == html.EndTagToken && tok.Data == dropping {
				dropping = ""
			}
			continue
		}

		switch tt {
		case html.TextToken:
			b.WriteString(textEscaper.Replace(tok.Data))
		case html.StartTagToken, html.SelfClosingTagToken:
			if p.dropBody[tok.Data] {
				dropping = tok.Data
				continue
			}
			attrs, ok := p.tags[tok.Data]
			if !ok {
				continue
			}
			p.writeStartTag(&b, tok, attrs, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			if _, ok := p.tags[tok.Data]; ok {
				b.WriteString("</")
				b.WriteString(tok.Data)
				b.WriteByte('>')
			}
		case html.CommentToken, html.DoctypeToken:
			// dropped
		}
	}
}

func (p *Policy) writeStartTag(b *strings.Builder, tok html.Token, allowed []string, selfClosing bool) {
	b.WriteByte('<')
	b.WriteString(tok.Data)
	for _, a := range tok.Attr {
		if a.Namespace != "" || !contains(allowed, a.Key) {
			continue
		}
		val := a.Val
		if urlAttrs[a.Key] {
			var ok bool
			if val, ok = safeURL(val); !ok {
				continue
			}
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(val))
		b.WriteByte('"')
	}
	if selfClosing {
		b.WriteString(" /")
	}
	b.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

var urlAttrs = map[string]bool{
	"href":   true,
	"src":    true,
	"cite":   true,
	"poster": true,
}

var safeURLPrefixes = []string{
	"http://",
	"https://",
	"mailto:",
	"tel:",
	"data:image/",
	"ftp://",
	"./",
	"../",
	"#",
	"/",
}

// safeURL trims v and accepts it only when it starts with a known safe
// scheme or is a relative reference anchored at ./, ../, # or /.
func safeURL(v string) (string, bool) {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	for _, prefix := range safeURLPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return v, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

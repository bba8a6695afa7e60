package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// dimension accepts both JSON numbers and numeric strings; the delivery API
// uses either depending on the asset type.
type dimension int

func (d *dimension) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("dimension %q: %w", b, err)
	}
	*d = dimension(n)
	return nil
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type links []link

// self returns the canonical href, falling back to the first link.
func (ls links) self() string {
	for _, l := range ls {
		if l.Rel == "self" {
			return l.Href
		}
	}
	if len(ls) > 0 {
		return ls[0].Href
	}
	return ""
}

type size struct {
	Width  dimension `json:"width"`
	Height dimension `json:"height"`
}

type renditionFormat struct {
	Format   string `json:"format"`
	Metadata size   `json:"metadata"`
	Links    links  `json:"links"`
}

type rendition struct {
	Name    string            `json:"name"`
	Formats []renditionFormat `json:"formats"`
}

func (r rendition) format(name string) (renditionFormat, bool) {
	for _, f := range r.Formats {
		if strings.EqualFold(f.Format, name) {
			return f, true
		}
	}
	return renditionFormat{}, false
}

type assetFields struct {
	Native struct {
		Links links `json:"links"`
	} `json:"native"`
	Metadata   size        `json:"metadata"`
	Renditions []rendition `json:"renditions"`
}

// sourceSet derives the progressive image URLs of an asset: every webp
// rendition plus the native file make the srcset, every jpg rendition makes
// the jpg srcset and also fills the named raster URL.
func sourceSet(fields assetFields) *Renditions {
	r := &Renditions{
		Width:  int(fields.Metadata.Width),
		Height: int(fields.Metadata.Height),
	}
	var webp, jpg []string
	for _, rd := range fields.Renditions {
		if f, ok := rd.format("jpg"); ok {
			href := f.Links.self()
			jpg = append(jpg, srcsetEntry(href, int(f.Metadata.Width)))
			r.setNamed(rd.Name, href)
		}
		if f, ok := rd.format("webp"); ok {
			webp = append(webp, srcsetEntry(f.Links.self(), int(f.Metadata.Width)))
		}
	}
	if native := fields.Native.Links.self(); native != "" {
		r.Native = native
		webp = append(webp, srcsetEntry(native, r.Width))
	}
	r.Srcset = strings.Join(webp, ", ")
	r.JPGSrcset = strings.Join(jpg, ", ")
	return r
}

func srcsetEntry(href string, width int) string {
	if width <= 0 {
		return href
	}
	return href + " " + strconv.Itoa(width) + "w"
}

func (r *Renditions) setNamed(name, href string) {
	switch strings.ToLower(name) {
	case "thumbnail":
		r.Thumbnail = href
	case "small":
		r.Small = href
	case "medium":
		r.Medium = href
	case "large":
		r.Large = href
	}
}

// decodeRenditions parses an asset item's fields. An empty fields payload
// yields nil.
func decodeRenditions(raw json.RawMessage) (*Renditions, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields assetFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return sourceSet(fields), nil
}

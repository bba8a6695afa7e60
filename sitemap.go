package topicblog

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap lists every generated page. Deferred pages are left out
// until a build or a request generates them.
func writeSitemap(w io.Writer, urls []sitemapURL) error {
	sort.Slice(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return nil
}

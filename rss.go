package topicblog

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"
)

// maxFeedItems caps feed.xml at the newest articles.
const maxFeedItems = 50

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

type feedEntry struct {
	Title       string
	Link        string
	Description string
	Category    string
	Published   time.Time
}

func (g *Generator) writeFeed(w io.Writer, entries []feedEntry) error {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Published.Equal(entries[j].Published) {
			return entries[i].Published.After(entries[j].Published)
		}
		return entries[i].Link < entries[j].Link
	})
	if len(entries) > maxFeedItems {
		entries = entries[:maxFeedItems]
	}
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		pubDate := ""
		if !e.Published.IsZero() {
			pubDate = e.Published.Format(time.RFC1123Z)
		}
		items = append(items, rssItem{
			Title:       e.Title,
			Link:        e.Link,
			Description: e.Description,
			Category:    e.Category,
			PubDate:     pubDate,
			GUID:        e.Link,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       g.cfg.Name,
			Link:        g.links.Absolute(g.cfg.URL, g.links.Home()),
			Description: g.cfg.Description,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return nil
}

package content

import "time"

// Renditions is a progressive image: a modern-format srcset, a jpg srcset
// and single raster URLs per named rendition. A nil *Renditions means the
// item has no image.
type Renditions struct {
	Srcset    string `json:"srcset" yaml:"srcset"`
	JPGSrcset string `json:"jpgSrcset" yaml:"jpgSrcset"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Small     string `json:"small,omitempty" yaml:"small,omitempty"`
	Medium    string `json:"medium,omitempty" yaml:"medium,omitempty"`
	Large     string `json:"large,omitempty" yaml:"large,omitempty"`
	Native    string `json:"native,omitempty" yaml:"native,omitempty"`
	Width     int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// Complete reports whether r carries every variant a <picture> needs:
// the modern srcset, the jpg srcset and at least one raster fallback.
func (r *Renditions) Complete() bool {
	if r == nil {
		return false
	}
	return r.Srcset != "" && r.JPGSrcset != "" && r.Fallback() != ""
}

// Fallback returns the best single raster URL for an <img> src, preferring
// the small rendition.
func (r *Renditions) Fallback() string {
	if r == nil {
		return ""
	}
	for _, u := range []string{r.Small, r.Thumbnail, r.Medium, r.Large, r.Native} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Prefer returns the named raster rendition (thumbnail, small, medium,
// large or native) when present, and Fallback otherwise.
func (r *Renditions) Prefer(name string) string {
	if r == nil {
		return ""
	}
	var u string
	switch name {
	case "thumbnail":
		u = r.Thumbnail
	case "small":
		u = r.Small
	case "medium":
		u = r.Medium
	case "large":
		u = r.Large
	case "native":
		u = r.Native
	}
	if u != "" {
		return u
	}
	return r.Fallback()
}

// Topic is a group of articles shown on the home page.
type Topic struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Renditions  *Renditions `json:"renditionUrls,omitempty" yaml:"renditions,omitempty"`
}

// Article is the list projection of an article, as shown on a topic page.
type Article struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	PublishedDate time.Time   `json:"publishedDate"`
	Renditions    *Renditions `json:"renditionUrls,omitempty"`
}

// ArticleRef is the minimal projection used to enumerate article pages.
type ArticleRef struct {
	ID string `json:"id"`
}

// TopicArticles is the article list of one topic, newest first.
type TopicArticles struct {
	Articles []Article `json:"articles"`
}

// ArticleDetail is everything an article page shows. Content is untrusted
// markup straight from the backend.
type ArticleDetail struct {
	ID               string
	Name             string
	Title            string // author display name
	Date             time.Time
	Content          string
	ImageCaption     string
	Renditions       *Renditions
	AuthorRenditions *Renditions
	TopicID          string
	TopicName        string
}

// HomePage is the content of the topics list page.
type HomePage struct {
	CompanyTitle     string
	CompanyThumbnail *Renditions
	AboutURL         string
	ContactURL       string
	Topics           []Topic
}

package sanitize

// Policy is an allow-list of tags, each with the attributes it may carry,
// plus the set of tags whose whole body is discarded.
type Policy struct {
	tags     map[string][]string
	dropBody map[string]bool
}

// NewPolicy builds a policy from an allow-list and the tags whose bodies
// must be dropped. A tag present in both is dropped.
func NewPolicy(tags map[string][]string, dropBody ...string) *Policy {
	p := &Policy{
		tags:     make(map[string][]string, len(tags)),
		dropBody: make(map[string]bool, len(dropBody)),
	}
	for tag, attrs := range tags {
		p.tags[tag] = append([]string(nil), attrs...)
	}
	for _, tag := range dropBody {
		p.dropBody[tag] = true
		delete(p.tags, tag)
	}
	return p
}

// Allows reports whether tag survives sanitization.
func (p *Policy) Allows(tag string) bool {
	_, ok := p.tags[tag]
	return ok
}

// DefaultPolicy returns the policy used for article bodies: common
// formatting, list, table and media tags, no style attributes, and script
// bodies dropped.
//
// Raw-text elements (style, textarea, title, iframe, noscript...) are never
// allowed; re-emitting them would change how the output tokenizes.
func DefaultPolicy() *Policy {
	return NewPolicy(defaultTags, "script")
}

var (
	alignAttrs = []string{"align", "valign"}
	cellAttrs  = []string{"width", "rowspan", "colspan", "align", "valign"}
	colAttrs   = []string{"align", "valign", "span", "width"}
)

var defaultTags = map[string][]string{
	"a":          {"target", "href", "title"},
	"abbr":       {"title"},
	"address":    nil,
	"area":       {"shape", "coords", "href", "alt"},
	"article":    nil,
	"aside":      nil,
	"audio":      {"autoplay", "controls", "crossorigin", "loop", "muted", "preload", "src"},
	"b":          nil,
	"bdi":        {"dir"},
	"bdo":        {"dir"},
	"big":        nil,
	"blockquote": {"cite"},
	"br":         nil,
	"caption":    nil,
	"center":     nil,
	"cite":       nil,
	"code":       nil,
	"col":        colAttrs,
	"colgroup":   colAttrs,
	"dd":         nil,
	"del":        {"datetime"},
	"details":    {"open"},
	"div":        nil,
	"dl":         nil,
	"dt":         nil,
	"em":         nil,
	"figcaption": nil,
	"figure":     nil,
	"font":       {"color", "size", "face"},
	"footer":     nil,
	"h1":         nil,
	"h2":         nil,
	"h3":         nil,
	"h4":         nil,
	"h5":         nil,
	"h6":         nil,
	"header":     nil,
	"hr":         nil,
	"i":          nil,
	"img":        {"src", "alt", "title", "width", "height", "loading"},
	"ins":        {"datetime"},
	"kbd":        nil,
	"li":         nil,
	"mark":       nil,
	"nav":        nil,
	"ol":         nil,
	"p":          nil,
	"pre":        nil,
	"s":          nil,
	"section":    nil,
	"small":      nil,
	"span":       nil,
	"strike":     nil,
	"strong":     nil,
	"sub":        nil,
	"summary":    nil,
	"sup":        nil,
	"table":      {"width", "border", "align", "valign"},
	"tbody":      alignAttrs,
	"td":         cellAttrs,
	"tfoot":      alignAttrs,
	"th":         cellAttrs,
	"thead":      alignAttrs,
	"tr":         {"rowspan", "align", "valign"},
	"tt":         nil,
	"u":          nil,
	"ul":         nil,
	"video":      {"autoplay", "controls", "crossorigin", "loop", "muted", "playsinline", "poster", "preload", "src", "height", "width"},
}

package links

// HomeLabel is the label of the root breadcrumb.
const HomeLabel = "Home"

// Crumb is one breadcrumb entry. The current page has a zero Target and is
// rendered as plain text.
type Crumb struct {
	Label  string
	Target Target
}

// Linked reports whether the crumb renders as a link.
func (c Crumb) Linked() bool { return !c.Target.IsZero() }

// Section is a linked intermediate crumb.
func (b Builder) Section(label string, t Target) Crumb {
	return Crumb{Label: label, Target: t}
}

// Trail returns Home, then sections in order, then the unlinked current
// page. The last crumb never carries a target, whatever the sections hold.
func (b Builder) Trail(current string, sections ...Crumb) []Crumb {
	trail := make([]Crumb, 0, len(sections)+2)
	trail = append(trail, Crumb{Label: HomeLabel, Target: b.Home()})
	trail = append(trail, sections...)
	trail = append(trail, Crumb{Label: current})
	return trail
}

// TopicTrail is Home > topic.
func (b Builder) TopicTrail(topicName string) []Crumb {
	return b.Trail(topicName)
}

// ArticleTrail is Home > topic (linked) > article.
func (b Builder) ArticleTrail(topicID, topicName, articleName string) []Crumb {
	return b.Trail(articleName, b.Section(topicName, b.Topic(topicID)))
}

package nav

import (
	"path"
	"strings"

	"suitcraft.com/web/internal/page"
)

// Item represents a top-level navigation entry.
type Item struct {
	Label   string // e.g. "About Us"
	Section page.Section
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Label   string
	Section string
	Href    string // server route performing the selection (works without JS)
	Anchor  string // in-page fragment, e.g. "#shop"
	Active  bool
}

// Labels is the navigation label list shown in the header and footer.
var Labels = []string{"Home", "About Us", "Shop", "Contact"}

// Main is the primary navigation definition derived from Labels.
var Main = buildMain(Labels)

func buildMain(labels []string) []Item {
	items := make([]Item, 0, len(labels))
	for _, label := range labels {
		sec, ok := page.ParseSection(SectionID(label))
		if !ok {
			continue
		}
		items = append(items, Item{Label: label, Section: sec})
	}
	return items
}

// SectionID derives the section identifier from a navigation label:
// lowercase, with the first space replaced by a hyphen ("About Us" -> "about-us").
func SectionID(label string) string {
	return strings.Replace(strings.ToLower(strings.TrimSpace(label)), " ", "-", 1)
}

// Build renders navigation items under basePath, marking active as current.
func Build(basePath string, active page.Section) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		id := string(it.Section)
		items = append(items, RenderedItem{
			Label:   it.Label,
			Section: id,
			Href:    Join(basePath, "go", id),
			Anchor:  "#" + id,
			Active:  it.Section == active,
		})
	}
	return items
}

// Join builds an absolute URL path below basePath.
func Join(basePath string, elems ...string) string {
	if basePath == "" {
		basePath = "/"
	}
	p := path.Join(append([]string{basePath}, elems...)...)
	if len(elems) > 0 && strings.HasSuffix(elems[len(elems)-1], "/") && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// ResumeParam marks a page load that renders the visitor's stored state
// instead of starting fresh.
const ResumeParam = "view"

// ResumeURL returns the page URL that keeps stored state, scrolled to sec when
// set, e.g. "/suitshop-website/?view=current#shop".
func ResumeURL(basePath string, sec page.Section) string {
	u := Join(basePath, "/") + "?" + ResumeParam + "=current"
	if sec == "" {
		return u
	}
	return u + "#" + string(sec)
}

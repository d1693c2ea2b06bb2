package seo

// OpenGraph carries og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
}

// Twitter carries twitter:* card tags.
type Twitter struct {
	Card  string
	Image string
}

// Meta is the <head> metadata for a rendered page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}

// NewMeta fills the social tags from the base title, description and image.
func NewMeta(title, description, canonical, image string) Meta {
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
		},
		Twitter: Twitter{Card: "summary_large_image", Image: image},
	}
}

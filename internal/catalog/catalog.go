// Package catalog holds the read-only storefront content: products, store
// details, hero copy and footer data.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"suitcraft.com/web/internal/format"
)

// Product is one featured suit.
type Product struct {
	Image       string `yaml:"image"`
	Title       string `yaml:"title"`
	PriceMinor  int64  `yaml:"price_minor"`
	Currency    string `yaml:"currency"`
	Description string `yaml:"description"`
	Rating      int    `yaml:"rating"`
}

// Price renders the product price for display.
func (p Product) Price() string {
	return format.Currency(p.PriceMinor, p.Currency)
}

// Stars returns filled flags for the clamped rating.
func (p Product) Stars() []bool {
	return format.Stars(p.Rating)
}

// Stat is one figure in the about section.
type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Hours is one line of the opening times.
type Hours struct {
	Days  string `yaml:"days"`
	Times string `yaml:"times"`
}

// String renders "Days: Times".
func (h Hours) String() string {
	return h.Days + ": " + h.Times
}

// Hero is the full-viewport banner in the home section.
type Hero struct {
	Image     string `yaml:"image"`
	ImageAlt  string `yaml:"image_alt"`
	Headline  string `yaml:"headline"`
	Highlight string `yaml:"highlight"`
	Tagline   string `yaml:"tagline"`
	CTA       string `yaml:"cta"`
}

// About is the imagery and figures accompanying the about copy.
type About struct {
	Image      string `yaml:"image"`
	ImageAlt   string `yaml:"image_alt"`
	BadgeTitle string `yaml:"badge_title"`
	BadgeText  string `yaml:"badge_text"`
	Stats      []Stat `yaml:"stats"`
}

// Contact lists the store's reachable details.
type Contact struct {
	Heading string  `yaml:"heading"`
	Intro   string  `yaml:"intro"`
	Phone   string  `yaml:"phone"`
	Email   string  `yaml:"email"`
	Address string  `yaml:"address"`
	City    string  `yaml:"city"`
	Country string  `yaml:"country"`
	Hours   []Hours `yaml:"hours"`
}

// Site is everything rendered on the page besides per-visitor state.
type Site struct {
	Name          string    `yaml:"name"`
	Title         string    `yaml:"title"`
	Description   string    `yaml:"description"`
	URL           string    `yaml:"url"`
	FoundedYear   int       `yaml:"founded_year"`
	Hero          Hero      `yaml:"hero"`
	ShopHeading   string    `yaml:"shop_heading"`
	ShopIntro     string    `yaml:"shop_intro"`
	Products      []Product `yaml:"products"`
	About         About     `yaml:"about"`
	Contact       Contact   `yaml:"contact"`
	Services      []string  `yaml:"services"`
	CopyrightYear int       `yaml:"copyright_year"`
}

// Tagline is the footer blurb.
func (s Site) Tagline() string {
	return fmt.Sprintf("Crafting excellence in men's formal wear since %d.", s.FoundedYear)
}

// Copyright is the footer legal line.
func (s Site) Copyright() string {
	return fmt.Sprintf("© %d %s - Man Formal Suit Shop. All rights reserved.", s.CopyrightYear, s.Name)
}

// Default returns the built-in storefront content.
func Default() Site {
	return Site{
		Name:        "SuitCraft",
		Title:       "SuitCraft - Man Formal Suit Shop",
		Description: "Premium men's formal suits, custom tailoring and personal styling in New York.",
		FoundedYear: 2003,
		Hero: Hero{
			Image:     "https://images.pexels.com/photos/1043474/pexels-photo-1043474.jpeg?auto=compress&cs=tinysrgb&w=1920&h=1280&fit=crop",
			ImageAlt:  "Elegant man in formal suit",
			Headline:  "Elevate Your Style with Our",
			Highlight: "Formal Suits",
			Tagline:   "Crafted with precision, designed for perfection",
			CTA:       "Shop Now",
		},
		ShopHeading: "Featured Collection",
		ShopIntro:   "Discover our handpicked selection of premium formal suits, tailored for the modern gentleman",
		Products: []Product{
			{
				Image:       "https://images.pexels.com/photos/1080686/pexels-photo-1080686.jpeg?auto=compress&cs=tinysrgb&w=600&h=800&fit=crop",
				Title:       "Classic Black Suit",
				PriceMinor:  19999,
				Currency:    "USD",
				Description: "A timeless black suit perfect for any occasion. Crafted from premium wool blend.",
				Rating:      5,
			},
			{
				Image:       "https://images.pexels.com/photos/1040945/pexels-photo-1040945.jpeg?auto=compress&cs=tinysrgb&w=600&h=800&fit=crop",
				Title:       "Navy Blue Suit",
				PriceMinor:  22999,
				Currency:    "USD",
				Description: "Elegant navy suit that stands out. Perfect for business meetings and formal events.",
				Rating:      5,
			},
			{
				Image:       "https://images.pexels.com/photos/1078958/pexels-photo-1078958.jpeg?auto=compress&cs=tinysrgb&w=600&h=800&fit=crop",
				Title:       "Grey Formal Suit",
				PriceMinor:  21000,
				Currency:    "USD",
				Description: "Sophisticated grey suit for business events. Modern cut with classic elegance.",
				Rating:      4,
			},
		},
		About: About{
			Image:      "https://images.pexels.com/photos/1183266/pexels-photo-1183266.jpeg?auto=compress&cs=tinysrgb&w=800&h=1000&fit=crop",
			ImageAlt:   "Tailoring craftsmanship",
			BadgeTitle: "Premium Quality",
			BadgeText:  "Guaranteed",
			Stats: []Stat{
				{Value: "1000+", Label: "Happy Customers"},
				{Value: "20+", Label: "Years Experience"},
				{Value: "50+", Label: "Suit Styles"},
			},
		},
		Contact: Contact{
			Heading: "Get in Touch",
			Intro:   "Ready to find your perfect suit? Contact us today for a personalized consultation.",
			Phone:   "+1 (555) 123-4567",
			Email:   "info@suitcraft.com",
			Address: "123 Fashion Avenue",
			City:    "NYC",
			Country: "US",
			Hours: []Hours{
				{Days: "Mon - Fri", Times: "9AM - 8PM"},
				{Days: "Saturday", Times: "10AM - 6PM"},
				{Days: "Sunday", Times: "12PM - 5PM"},
			},
		},
		Services:      []string{"Custom Tailoring", "Suit Alterations", "Personal Styling", "Wedding Packages"},
		CopyrightYear: 2025,
	}
}

// FullAddress joins street and city the way the page shows it.
func (c Contact) FullAddress() string {
	if c.City == "" {
		return c.Address
	}
	return c.Address + ", " + c.City
}

// Load overlays the YAML document at path onto Default. An empty path returns
// the defaults unchanged; keys absent from the file keep their default values.
func Load(path string) (Site, error) {
	site := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return site, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Site{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := Decode(bytes.NewReader(data), &site); err != nil {
		return Site{}, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return site, nil
}

// Decode overlays a YAML document onto site and normalises the result.
func Decode(r io.Reader, site *Site) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(site); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	for i := range site.Products {
		site.Products[i].Rating = format.ClampRating(site.Products[i].Rating)
		if site.Products[i].Currency == "" {
			site.Products[i].Currency = "USD"
		}
	}
	return nil
}

package seo

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script wraps a schema payload for embedding in <script type="application/ld+json">.
// html/template treats that element body as JS, so the payload is passed
// through as a pre-escaped JS value.
func Script(v any) template.JS {
	return template.JS(JSON(v))
}

// Address is a schema.org PostalAddress.
type Address struct {
	Street   string
	Locality string
	Country  string
}

// OpeningHours is one human-readable opening line, e.g. Days "Mon - Fri" and
// Times "9AM - 8PM".
type OpeningHours struct {
	Days  string
	Times string
}

// Store describes the business for a ClothingStore schema.
type Store struct {
	Name      string
	URL       string
	Image     string
	Telephone string
	Email     string
	Address   Address
	Hours     []OpeningHours
}

// ClothingStore returns a schema.org ClothingStore payload.
func ClothingStore(s Store) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "ClothingStore",
		"name":     s.Name,
	}
	if s.URL != "" {
		m["url"] = s.URL
	}
	if s.Image != "" {
		m["image"] = s.Image
	}
	if s.Telephone != "" {
		m["telephone"] = s.Telephone
	}
	if s.Email != "" {
		m["email"] = s.Email
	}
	if s.Address.Street != "" {
		addr := map[string]any{
			"@type":         "PostalAddress",
			"streetAddress": s.Address.Street,
		}
		if s.Address.Locality != "" {
			addr["addressLocality"] = s.Address.Locality
		}
		if s.Address.Country != "" {
			addr["addressCountry"] = s.Address.Country
		}
		m["address"] = addr
	}
	if len(s.Hours) > 0 {
		hours := make([]string, 0, len(s.Hours))
		for _, h := range s.Hours {
			if spec, ok := openingHoursSpec(h); ok {
				hours = append(hours, spec)
			}
		}
		if len(hours) > 0 {
			m["openingHours"] = hours
		}
	}
	return m
}

// Offer is a product listed in an ItemList.
type Offer struct {
	Name        string
	Description string
	Image       string
	PriceMinor  int64
	Currency    string
	Rating      int
}

// ProductList returns an ItemList of Product entries, each with an Offer and
// an AggregateRating when rated.
func ProductList(name string, offers []Offer) map[string]any {
	el := make([]map[string]any, 0, len(offers))
	for i, o := range offers {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"item":     Product(o),
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            name,
		"itemListElement": el,
	}
}

// Product returns a product schema payload.
func Product(o Offer) map[string]any {
	currency := strings.ToUpper(o.Currency)
	if currency == "" {
		currency = "USD"
	}
	m := map[string]any{
		"@type": "Product",
		"name":  o.Name,
		"offers": map[string]any{
			"@type":         "Offer",
			"price":         fmt.Sprintf("%d.%02d", o.PriceMinor/100, o.PriceMinor%100),
			"priceCurrency": currency,
			"availability":  "https://schema.org/InStock",
		},
	}
	if o.Description != "" {
		m["description"] = o.Description
	}
	if o.Image != "" {
		m["image"] = o.Image
	}
	if o.Rating > 0 {
		m["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": o.Rating,
			"bestRating":  5,
			"ratingCount": 1,
		}
	}
	return m
}

var dayCodes = map[string]string{
	"mon": "Mo", "monday": "Mo",
	"tue": "Tu", "tuesday": "Tu",
	"wed": "We", "wednesday": "We",
	"thu": "Th", "thursday": "Th",
	"fri": "Fr", "friday": "Fr",
	"sat": "Sa", "saturday": "Sa",
	"sun": "Su", "sunday": "Su",
}

// openingHoursSpec converts "Mon - Fri" / "9AM - 8PM" into "Mo-Fr 09:00-20:00".
func openingHoursSpec(h OpeningHours) (string, bool) {
	days, ok := splitRange(h.Days, func(s string) (string, bool) {
		code, ok := dayCodes[strings.ToLower(s)]
		return code, ok
	})
	if !ok {
		return "", false
	}
	times, ok := splitRange(h.Times, clock24)
	if !ok {
		return "", false
	}
	return days + " " + times, true
}

func splitRange(v string, conv func(string) (string, bool)) (string, bool) {
	parts := strings.Split(v, "-")
	if len(parts) > 2 {
		return "", false
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		c, ok := conv(strings.TrimSpace(p))
		if !ok {
			return "", false
		}
		out = append(out, c)
	}
	if len(out) == 1 {
		return out[0], true
	}
	return out[0] + "-" + out[1], true
}

// clock24 turns "9AM" or "12PM" into "09:00" and "12:00".
func clock24(v string) (string, bool) {
	v = strings.ToUpper(strings.ReplaceAll(v, " ", ""))
	var suffix string
	switch {
	case strings.HasSuffix(v, "AM"):
		suffix = "AM"
	case strings.HasSuffix(v, "PM"):
		suffix = "PM"
	default:
		return "", false
	}
	var hour int
	if _, err := fmt.Sscanf(strings.TrimSuffix(v, suffix), "%d", &hour); err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	hour %= 12
	if suffix == "PM" {
		hour += 12
	}
	return fmt.Sprintf("%02d:00", hour), true
}

package main

import (
	"html/template"
	"net/http"

	"suitcraft.com/web/internal/catalog"
	"suitcraft.com/web/internal/content"
	mw "suitcraft.com/web/internal/middleware"
	"suitcraft.com/web/internal/nav"
	"suitcraft.com/web/internal/page"
	"suitcraft.com/web/internal/seo"
)

// pageView is the data for the "base" layout.
type pageView struct {
	Meta           seo.Meta
	Base           string
	CSRF           string
	StoreJSONLD    template.JS
	ProductsJSONLD template.JS
	Header         headerView
	Site           catalog.Site
	About          content.Document
	ShopURL        string
	Contact        contactView
}

// headerView is the data for the "header" fragment.
type headerView struct {
	Home      nav.RenderedItem
	SiteName  string
	Items     []nav.RenderedItem
	ToggleURL string
	CSRF      string
	MenuOpen  bool
}

// contactView is the data for the "contact-form" fragment.
type contactView struct {
	Action       string
	FieldURL     string
	CSRF         string
	Confirmation string
	Error        string
	Fields       []fieldView
}

type fieldView struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	Error       string
	Multiline   bool
}

type fieldSpec struct {
	label       string
	inputType   string
	placeholder string
	multiline   bool
}

var fieldSpecs = map[page.Field]fieldSpec{
	page.FieldName:    {label: "Name", inputType: "text", placeholder: "Your Name"},
	page.FieldEmail:   {label: "Email", inputType: "email", placeholder: "Your Email"},
	page.FieldMessage: {label: "Message", placeholder: "Your Message", multiline: true},
}

// fieldErrors maps a form field to its inline validation message.
type fieldErrors map[page.Field]string

func (s *server) headerView(r *http.Request, st page.State, active page.Section) headerView {
	base := s.cfg.Site.BasePath
	return headerView{
		Home: nav.RenderedItem{
			Label:   s.site.Name,
			Section: string(page.SectionHome),
			Href:    nav.Join(base, "go", string(page.SectionHome)),
			Anchor:  "#" + string(page.SectionHome),
		},
		SiteName:  s.site.Name,
		Items:     nav.Build(base, active),
		ToggleURL: nav.Join(base, "ui", "menu"),
		CSRF:      mw.CSRFToken(r),
		MenuOpen:  st.MenuOpen,
	}
}

func (s *server) contactView(r *http.Request, form page.ContactForm, errs fieldErrors) contactView {
	base := s.cfg.Site.BasePath
	fields := make([]fieldView, 0, len(page.Fields))
	for _, f := range page.Fields {
		spec := fieldSpecs[f]
		fields = append(fields, fieldView{
			Name:        string(f),
			Label:       spec.label,
			Type:        spec.inputType,
			Placeholder: spec.placeholder,
			Value:       form.Value(f),
			Error:       errs[f],
			Multiline:   spec.multiline,
		})
	}
	return contactView{
		Action:   nav.Join(base, "contact"),
		FieldURL: nav.Join(base, "contact", "field"),
		CSRF:     mw.CSRFToken(r),
		Fields:   fields,
	}
}

func (s *server) pageView(r *http.Request, st page.State, contact contactView) pageView {
	base := s.cfg.Site.BasePath
	return pageView{
		Meta:           s.meta,
		Base:           base,
		CSRF:           mw.CSRFToken(r),
		StoreJSONLD:    s.storeJSONLD,
		ProductsJSONLD: s.productsJSONLD,
		Header:         s.headerView(r, st, ""),
		Site:           s.site,
		About:          s.about,
		ShopURL:        nav.Join(base, "go", string(page.SectionShop)),
		Contact:        contact,
	}
}

// pageMeta fills the head tags. The about summary stands in when the site
// has no description of its own.
func pageMeta(site catalog.Site, about content.Document, basePath string) seo.Meta {
	desc := site.Description
	if desc == "" {
		desc = about.Summary
	}
	canonical := ""
	if site.URL != "" {
		canonical = site.URL + nav.Join(basePath, "/")
	}
	return seo.NewMeta(site.Title, desc, canonical, site.Hero.Image)
}

func storeSchema(site catalog.Site, canonical string) template.JS {
	hours := make([]seo.OpeningHours, 0, len(site.Contact.Hours))
	for _, h := range site.Contact.Hours {
		hours = append(hours, seo.OpeningHours{Days: h.Days, Times: h.Times})
	}
	return seo.Script(seo.ClothingStore(seo.Store{
		Name:      site.Name,
		URL:       canonical,
		Image:     site.Hero.Image,
		Telephone: site.Contact.Phone,
		Email:     site.Contact.Email,
		Address: seo.Address{
			Street:   site.Contact.Address,
			Locality: site.Contact.City,
			Country:  site.Contact.Country,
		},
		Hours: hours,
	}))
}

func productsSchema(site catalog.Site) template.JS {
	offers := make([]seo.Offer, 0, len(site.Products))
	for _, p := range site.Products {
		offers = append(offers, seo.Offer{
			Name:        p.Title,
			Description: p.Description,
			Image:       p.Image,
			PriceMinor:  p.PriceMinor,
			Currency:    p.Currency,
			Rating:      p.Rating,
		})
	}
	return seo.Script(seo.ProductList(site.ShopHeading, offers))
}

package httpserver

import (
	"embed"
	"html/template"
	"io"

	"rentfinder/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type link struct{ Label, Href string }

type feature struct{ Title, Desc string }

type footerColumn struct {
	Title string
	Items []string
}

var (
	navLinks = []link{
		{"Rent", "#"}, {"Buy", "#"}, {"Sell", "#"}, {"Post Property", "#"},
	}
	searchHints = []string{"Greater Kailash", "Sector 14 Noida", "Bandra"}
	heroBadges  = []string{"Verified Properties", "No Brokerage", "Schedule Visits"}
	features    = []feature{
		{"List for free", "Owners can list without paying brokerage."},
		{"Verified listings", "Listings verified by our team."},
		{"Schedule visits", "Book visits directly with owners."},
		{"Rental agreements", "Download legal agreements."},
	}
	footerColumns = []footerColumn{
		{"NoBroker-inspired", []string{"Build an awesome rental product."}},
		{"Company", []string{"About", "Careers", "Blog"}},
		{"Support", []string{"Contact", "FAQ", "Terms"}},
	}
)

const heroImage = "https://images.unsplash.com/photo-1560185127-6a1c6f9f0d4b?auto=format&fit=crop&w=900&q=60"

type card struct {
	ID    int64
	Title string
	City  string
	Price string
	Img   string
}

type pageData struct {
	Nav         []link
	Query       string
	Hints       []string
	Badges      []string
	HeroImage   string
	Features    []feature
	Cards       []card
	Shown       int
	Total       int
	Placeholder string
	Footer      []footerColumn
}

func newPageData(v app.View, images *app.ImageStatus) pageData {
	cards := make([]card, 0, len(v.Listings))
	for _, l := range v.Listings {
		cards = append(cards, card{ID: l.ID, Title: l.Title, City: l.City, Price: l.Price, Img: images.URL(l)})
	}
	return pageData{
		Nav:         navLinks,
		Query:       v.Query,
		Hints:       searchHints,
		Badges:      heroBadges,
		HeroImage:   heroImage,
		Features:    features,
		Cards:       cards,
		Shown:       len(cards),
		Total:       v.Total,
		Placeholder: images.Placeholder(),
		Footer:      footerColumns,
	}
}

func renderPage(w io.Writer, d pageData) error {
	return pageTmpl.ExecuteTemplate(w, "page.html", d)
}

package scraper

import (
	"strings"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/PuerkitoBio/goquery"
)

const allegroBaseURL = "https://allegro.pl"

var allegroSort = map[models.SortKey]string{
	models.SortNewest:     "qd",
	models.SortPriceAsc:   "p",
	models.SortPriceDesc:  "pd",
	models.SortEndingSoon: "ek",
}

// NewAllegroClient cria o cliente do Allegro (Polônia). Preços em PLN.
func NewAllegroClient(fetcher *pageFetcher) Client {
	return &pageClient{
		marketplace:    models.MarketplaceAllegro,
		baseURL:        allegroBaseURL,
		acceptLanguage: "pl-PL,pl;q=0.9,en;q=0.5",
		fetcher:        fetcher,
		buildURL:       allegroSearchURL,
		parse:          parseAllegro,
	}
}

func allegroSearchURL(base, query string, f *models.Filter) string {
	lo, hi := priceParams(f)

	var stan string
	if f != nil {
		switch strings.ToLower(f.Condition) {
		case "used", "usato", "usado":
			stan = "używane"
		case "new", "nuovo", "novo":
			stan = "nowe"
		}
	}

	return searchURL(base, "/listing", [][2]string{
		{"string", query},
		{"price_from", lo},
		{"price_to", hi},
		{"stan", stan},
		{"order", allegroSort[f.Sort()]},
	})
}

func parseAllegro(doc *goquery.Document, base string) []models.Listing {
	var listings []models.Listing

	doc.Find(`article[data-role="offer"], div[data-box-name="listings-grid"] > div`).Each(func(i int, s *goquery.Selection) {
		raw := firstText(s, `[data-role="price"], [data-box-name="price"]`)
		if raw != "" && !strings.Contains(strings.ToLower(raw), "zł") && !strings.Contains(strings.ToUpper(raw), "PLN") {
			raw += " PLN"
		}

		listings = append(listings, models.Listing{
			Title:      firstText(s, `h2[data-role="offer-title"], [data-box-name="title"], h2`),
			Price:      price.Normalize(raw),
			Condition:  firstText(s, `[data-box-name="condition"]`),
			Location:   firstText(s, `[data-box-name="location"]`),
			ImageURL:   imageOf(s, `img[data-role="offer-photo"], [data-box-name="image"] img, img`),
			ListingURL: absoluteURL(base, s.Find(`a[href*="/oferta/"]`).First().AttrOr("href", "")),
		})
	})

	return listings
}

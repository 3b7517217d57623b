package scraper

import (
	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/PuerkitoBio/goquery"
)

const wallapopBaseURL = "https://es.wallapop.com"

var wallapopSort = map[models.SortKey]string{
	models.SortNewest:    "newest",
	models.SortPriceAsc:  "cheapest",
	models.SortPriceDesc: "most_expensive",
}

// NewWallapopClient cria o cliente do Wallapop (Espanha)
func NewWallapopClient(fetcher *pageFetcher) Client {
	return &pageClient{
		marketplace:    models.MarketplaceWallapop,
		baseURL:        wallapopBaseURL,
		acceptLanguage: "es-ES,es;q=0.9,en;q=0.5",
		fetcher:        fetcher,
		buildURL:       wallapopSearchURL,
		parse:          parseWallapop,
	}
}

func wallapopSearchURL(base, query string, f *models.Filter) string {
	lo, hi := priceParams(f)
	return searchURL(base, "/search", [][2]string{
		{"keywords", query},
		{"min_price", lo},
		{"max_price", hi},
		{"order_by", wallapopSort[f.Sort()]},
	})
}

func parseWallapop(doc *goquery.Document, base string) []models.Listing {
	var listings []models.Listing

	doc.Find(`.ItemCardList__item, .ItemCard, [data-testid="item-card"]`).Each(func(i int, s *goquery.Selection) {
		href := s.Find(`a.ItemCard-link, [data-testid="item-card-link"]`).First().AttrOr("href", "")
		if href == "" && goquery.NodeName(s) == "a" {
			href = s.AttrOr("href", "")
		}

		listings = append(listings, models.Listing{
			Title:      firstText(s, `.ItemCard-title, [data-testid="item-card-title"]`),
			Price:      price.Normalize(firstText(s, `.ItemCard-price, [data-testid="item-card-price"]`)),
			Condition:  firstText(s, `.ItemCard-condition, [data-testid="item-card-condition"]`),
			Location:   firstText(s, `.ItemCard-location, [data-testid="item-card-location"]`),
			ImageURL:   imageOf(s, `img.ItemCard-image, [data-testid="item-card-image"], img`),
			ListingURL: absoluteURL(base, href),
		})
	})

	return listings
}

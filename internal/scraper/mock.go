package scraper

import (
	"fmt"
	"time"

	"bot-anuncios/internal/models"
)

type mockTemplate struct {
	title     string
	price     string
	condition string
	location  string
	image     string
	url       string
	age       time.Duration
}

// mockTemplates são os resultados de demonstração das APIs sem credenciais.
// %s no título é substituído pela consulta.
var mockTemplates = map[models.Marketplace][]mockTemplate{
	models.MarketplaceEbay: {
		{"%s Vintage Style - Excellent Condition", "75€", "Used - Good", "Milan, IT",
			"https://images.unsplash.com/photo-1609799545166-347a5ba518cf", "https://example.com/ebay-listing-1", 48 * time.Hour},
		{"Antique %s - Collector's Item", "125€", "Used - Very Good", "Rome, IT",
			"https://images.unsplash.com/photo-1589394693989-58f2525ebe95", "https://example.com/ebay-listing-2", 5 * time.Hour},
	},
	models.MarketplaceAmazon: {
		{"%s - Premium Quality - Fast Shipping", "89.99€", "New", "Amazon Warehouse",
			"https://images.unsplash.com/photo-1580480055273-228ff5388ef8", "https://example.com/amazon-listing-1", 120 * time.Hour},
		{"%s - Special Edition - Limited Stock", "129.99€", "New", "Amazon Warehouse",
			"https://images.unsplash.com/photo-1574944985070-8f3ebc6b79d2", "https://example.com/amazon-listing-2", 48 * time.Hour},
	},
}

// mockResults monta os resultados de demonstração e aplica os filtros locais
func mockResults(m models.Marketplace, query string, f *models.Filter) []models.Listing {
	now := time.Now()
	templates := mockTemplates[m]

	listings := make([]models.Listing, 0, len(templates))
	for _, t := range templates {
		listings = append(listings, models.Listing{
			Title:       fmt.Sprintf(t.title, query),
			Price:       t.price,
			Condition:   t.condition,
			Location:    t.location,
			ImageURL:    t.image,
			ListingURL:  t.url,
			Marketplace: m,
			PostedAt:    now.Add(-t.age),
		})
	}
	return postFilter(listings, query, f)
}

package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/PuerkitoBio/goquery"
)

const leboncoinBaseURL = "https://www.leboncoin.fr"

var leboncoinDaysAgoRegexp = regexp.MustCompile(`(?i)il y a (\d+) jours?`)

var leboncoinSort = map[models.SortKey]string{
	models.SortNewest:    "date-des",
	models.SortPriceAsc:  "price-asc",
	models.SortPriceDesc: "price-des",
}

// NewLeboncoinClient cria o cliente do Leboncoin (França)
func NewLeboncoinClient(fetcher *pageFetcher) Client {
	return &pageClient{
		marketplace:    models.MarketplaceLeboncoin,
		baseURL:        leboncoinBaseURL,
		acceptLanguage: "fr-FR,fr;q=0.9,en;q=0.5",
		fetcher:        fetcher,
		buildURL:       leboncoinSearchURL,
		parse:          parseLeboncoin,
	}
}

func leboncoinSearchURL(base, query string, f *models.Filter) string {
	var priceRange string
	lo, hi := priceParams(f)
	switch {
	case lo != "" && hi != "":
		priceRange = lo + "-" + hi
	case lo != "":
		priceRange = lo + "-max"
	case hi != "":
		priceRange = "0-" + hi
	}

	return searchURL(base, "/recherche", [][2]string{
		{"text", query},
		{"price", priceRange},
		{"sort", leboncoinSort[f.Sort()]},
	})
}

func parseLeboncoin(doc *goquery.Document, base string) []models.Listing {
	now := time.Now()
	var listings []models.Listing

	doc.Find(`div[data-test-id="ad-item"], article[data-qa-id="aditem_container"]`).Each(func(i int, s *goquery.Selection) {
		href := s.Find(`a[href^="/annonce/"], a[href^="/ad/"]`).First().AttrOr("href", "")
		if href == "" {
			href = s.Find("a").First().AttrOr("href", "")
		}

		listings = append(listings, models.Listing{
			Title:      firstText(s, `[data-test-id="ad-title"], [data-qa-id="aditem_title"]`),
			Price:      price.Normalize(firstText(s, `[data-test-id="ad-price"], [data-qa-id="aditem_price"]`)),
			Condition:  firstText(s, `[data-test-id="ad-condition"]`),
			Location:   firstText(s, `[data-test-id="ad-location"], [data-qa-id="aditem_location"]`),
			ImageURL:   imageOf(s, `img, [data-test-id="ad-image"]`),
			ListingURL: absoluteURL(base, href),
			PostedAt:   parseFrenchRelativeDate(firstText(s, `[data-test-id="ad-date"]`), now),
		})
	})

	return listings
}

// parseFrenchRelativeDate entende "Aujourd'hui", "Hier" e "Il y a N jours".
// Outros formatos retornam zero (data ausente).
func parseFrenchRelativeDate(text string, now time.Time) time.Time {
	lower := strings.ToLower(text)
	switch {
	case lower == "":
		return time.Time{}
	case strings.Contains(lower, "aujourd'hui") || strings.Contains(lower, "aujourd’hui"):
		return now
	case strings.Contains(lower, "hier"):
		return now.AddDate(0, 0, -1)
	}

	if m := leboncoinDaysAgoRegexp.FindStringSubmatch(text); len(m) > 1 {
		if days, err := strconv.Atoi(m[1]); err == nil {
			return now.AddDate(0, 0, -days)
		}
	}
	return time.Time{}
}

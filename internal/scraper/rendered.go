package scraper

import (
	"context"
	"fmt"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/chromedp/chromedp"
)

// cardData é o formato devolvido pelos scripts de extração
type cardData struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Image    string `json:"image"`
	URL      string `json:"url"`
}

// renderedClient extrai anúncios de páginas que precisam de navegador
type renderedClient struct {
	marketplace models.Marketplace
	pool        *BrowserPool
	buildURL    func(query string, f *models.Filter) string
	waitFor     string
	script      string
}

func (c *renderedClient) Marketplace() models.Marketplace {
	return c.marketplace
}

func (c *renderedClient) Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	session, release, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.marketplace, err)
	}
	defer release()

	var cards []cardData
	err = chromedp.Run(session,
		chromedp.Navigate(c.buildURL(query, f)),
		chromedp.WaitReady(c.waitFor, chromedp.ByQuery),
		chromedp.Evaluate(c.script, &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: chromedp: %w", c.marketplace, err)
	}

	listings := make([]models.Listing, 0, len(cards))
	for _, card := range cards {
		listings = append(listings, models.Listing{
			Title:       card.Title,
			Price:       price.Normalize(card.Price),
			Location:    card.Location,
			ImageURL:    card.Image,
			ListingURL:  cleanURL(card.URL),
			Marketplace: c.marketplace,
		})
	}
	return postFilter(listings, query, f), nil
}

// NewSubitoClient cria o cliente do Subito.it, que depende do navegador
func NewSubitoClient(pool *BrowserPool) Client {
	return &renderedClient{
		marketplace: models.MarketplaceSubito,
		pool:        pool,
		buildURL:    subitoSearchURL,
		waitFor:     "div.items__item",
		script: `Array.from(document.querySelectorAll('div.items__item')).slice(0, 20).map(function (div) {
			var text = function (sel) { var el = div.querySelector(sel); return el ? el.innerText.trim() : ''; };
			var img = div.querySelector('img');
			var link = div.querySelector('a');
			return {
				title: text('h2'),
				price: text('.price, [class*="price"]'),
				location: text('.location, [class*="town"]'),
				image: img ? img.src : '',
				url: link ? link.href : ''
			};
		})`,
	}
}

func subitoSearchURL(query string, f *models.Filter) string {
	lo, hi := priceParams(f)
	return searchURL("https://www.subito.it", "/annunci-italia/vendita/usato/", [][2]string{
		{"q", query},
		{"priceMin", lo},
		{"priceMax", hi},
	})
}

// newEbayPageClient cria o cliente de páginas do eBay, usado sem chave de API
func newEbayPageClient(pool *BrowserPool) Client {
	return &renderedClient{
		marketplace: models.MarketplaceEbay,
		pool:        pool,
		buildURL:    ebayPageSearchURL,
		waitFor:     "body",
		script: `Array.from(document.querySelectorAll('li.s-item')).slice(0, 20).map(function (li) {
			var text = function (sel) { var el = li.querySelector(sel); return el ? el.innerText.trim() : ''; };
			var img = li.querySelector('img.s-item__image-img, img');
			var link = li.querySelector('a.s-item__link');
			return {
				title: text('.s-item__title'),
				price: text('.s-item__price'),
				location: text('.s-item__location'),
				image: img ? img.src : '',
				url: link ? link.href.split('?')[0] : ''
			};
		})`,
	}
}

func ebayPageSearchURL(query string, f *models.Filter) string {
	lo, hi := priceParams(f)
	return searchURL("https://www.ebay.it", "/sch/i.html", [][2]string{
		{"_nkw", query},
		{"_sacat", "0"},
		{"_udlo", lo},
		{"_udhi", hi},
	})
}

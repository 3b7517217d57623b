package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"
)

const (
	defaultEbayBaseURL   = "https://api.ebay.com/buy/browse/v1"
	defaultAmazonBaseURL = "https://api.amazon.com"
)

// apiFetcher faz chamadas JSON às APIs dos marketplaces
type apiFetcher struct {
	timeout time.Duration

	once   sync.Once
	client *http.Client
}

func (a *apiFetcher) getClient() *http.Client {
	a.once.Do(func() {
		timeout := a.timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		a.client = &http.Client{Timeout: timeout}
	})
	return a.client
}

func (a *apiFetcher) getJSON(ctx context.Context, rawURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.getClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// EbayClient usa a Browse API quando há chave. Sem chave, usa o navegador se
// houver um disponível; caso contrário devolve resultados de demonstração.
type EbayClient struct {
	creds Credentials
	api   apiFetcher
	page  Client
}

// NewEbayClient cria o cliente do eBay
func NewEbayClient(creds Credentials, pool *BrowserPool, timeout time.Duration) *EbayClient {
	if creds.BaseURL == "" {
		creds.BaseURL = defaultEbayBaseURL
	}
	c := &EbayClient{creds: creds, api: apiFetcher{timeout: timeout}}
	if pool.Available() {
		c.page = newEbayPageClient(pool)
	}
	return c
}

func (c *EbayClient) Marketplace() models.Marketplace {
	return models.MarketplaceEbay
}

func (c *EbayClient) Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	if c.creds.APIKey == "" {
		if c.page != nil {
			return c.page.Search(ctx, query, f)
		}
		slog.Debug("chave da API do eBay ausente, usando resultados de demonstração")
		return mockResults(models.MarketplaceEbay, query, f), nil
	}

	listings, err := c.searchAPI(ctx, query, f)
	if err != nil {
		slog.Warn("erro na API, usando resultados de demonstração",
			"marketplace", models.MarketplaceEbay, "error", err)
		return mockResults(models.MarketplaceEbay, query, f), nil
	}
	return listings, nil
}

var ebayConditions = map[string]string{
	"new":         "NEW",
	"nuovo":       "NEW",
	"novo":        "NEW",
	"used":        "USED",
	"usato":       "USED",
	"usado":       "USED",
	"like new":    "LIKE_NEW",
	"refurbished": "REFURBISHED",
}

var ebaySort = map[models.SortKey]string{
	models.SortBestMatch: "relevance",
	models.SortPriceAsc:  "price_asc",
	models.SortPriceDesc: "price_desc",
	models.SortNewest:    "newly_listed",
}

type ebayResponse struct {
	Items []struct {
		Title string `json:"title"`
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
		Condition    string `json:"condition"`
		ItemLocation struct {
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"itemLocation"`
		Image struct {
			ImageURL string `json:"imageUrl"`
		} `json:"image"`
		ItemWebURL       string `json:"itemWebUrl"`
		ItemCreationDate string `json:"itemCreationDate"`
	} `json:"items"`
}

// ebaySearchURL monta a requisição parametrizada da Browse API
func ebaySearchURL(base, query string, f *models.Filter) string {
	lo, hi := priceParams(f)

	var condition, sortBy string
	if f != nil {
		condition = ebayConditions[strings.ToLower(strings.TrimSpace(f.Condition))]
		sortBy = ebaySort[f.Sort()]
	}

	return searchURL(base, "/browse/search", [][2]string{
		{"q", query},
		{"price_min", lo},
		{"price_max", hi},
		{"itemCondition", condition},
		{"sort", sortBy},
	})
}

func (c *EbayClient) searchAPI(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	var resp ebayResponse
	err := c.api.getJSON(ctx, ebaySearchURL(c.creds.BaseURL, query, f), map[string]string{
		"Authorization":           "Bearer " + c.creds.APIKey,
		"X-EBAY-C-MARKETPLACE-ID": "EBAY_IT",
	}, &resp)
	if err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(resp.Items))
	for _, item := range resp.Items {
		location := item.ItemLocation.Country
		if item.ItemLocation.City != "" {
			location = item.ItemLocation.City + ", " + location
		}

		var postedAt time.Time
		if t, err := time.Parse(time.RFC3339, item.ItemCreationDate); err == nil {
			postedAt = t
		}

		listings = append(listings, models.Listing{
			Title:       item.Title,
			Price:       price.Normalize(item.Price.Value + " " + item.Price.Currency),
			Condition:   item.Condition,
			Location:    location,
			ImageURL:    item.Image.ImageURL,
			ListingURL:  item.ItemWebURL,
			Marketplace: models.MarketplaceEbay,
			PostedAt:    postedAt,
		})
	}

	// a API já recebe preço, condição e ordenação; o restante é aplicado aqui
	return postFilter(listings, query, f), nil
}

// AmazonClient consulta a API de produtos da Amazon. Exige chave e segredo;
// sem eles devolve resultados de demonstração.
type AmazonClient struct {
	creds Credentials
	api   apiFetcher
}

// NewAmazonClient cria o cliente da Amazon
func NewAmazonClient(creds Credentials, timeout time.Duration) *AmazonClient {
	if creds.BaseURL == "" {
		creds.BaseURL = defaultAmazonBaseURL
	}
	return &AmazonClient{creds: creds, api: apiFetcher{timeout: timeout}}
}

func (c *AmazonClient) Marketplace() models.Marketplace {
	return models.MarketplaceAmazon
}

func (c *AmazonClient) Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	if c.creds.APIKey == "" || c.creds.APISecret == "" {
		slog.Debug("credenciais da Amazon ausentes, usando resultados de demonstração")
		return mockResults(models.MarketplaceAmazon, query, f), nil
	}

	listings, err := c.searchAPI(ctx, query, f)
	if err != nil {
		slog.Warn("erro na API, usando resultados de demonstração",
			"marketplace", models.MarketplaceAmazon, "error", err)
		return mockResults(models.MarketplaceAmazon, query, f), nil
	}
	return listings, nil
}

type amazonResponse struct {
	Items []struct {
		Title string `json:"title"`
		Price struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"price"`
		Condition     string `json:"condition"`
		ImageURL      string `json:"imageUrl"`
		DetailPageURL string `json:"detailPageUrl"`
	} `json:"items"`
}

// amazonSearchURL monta a requisição; os limites de preço vão em centavos
func amazonSearchURL(base, query string, f *models.Filter) string {
	var lo, hi string
	if f.HasPriceBound() {
		if f.Price.Min != nil {
			lo = formatAmount(*f.Price.Min * 100)
		}
		if f.Price.Max != nil {
			hi = formatAmount(*f.Price.Max * 100)
		}
	}

	return searchURL(base, "/search", [][2]string{
		{"Keywords", query},
		{"SearchIndex", "All"},
		{"MinimumPrice", lo},
		{"MaximumPrice", hi},
	})
}

func (c *AmazonClient) searchAPI(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	var resp amazonResponse
	err := c.api.getJSON(ctx, amazonSearchURL(c.creds.BaseURL, query, f), map[string]string{
		"Authorization": "Bearer " + c.creds.APIKey,
		"X-Api-Secret":  c.creds.APISecret,
	}, &resp)
	if err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(resp.Items))
	for _, item := range resp.Items {
		currency := price.EUR
		if item.Price.Currency != "" && item.Price.Currency != price.EUR.Code {
			currency = price.DetectCurrency(item.Price.Currency)
		}
		listings = append(listings, models.Listing{
			Title:       item.Title,
			Price:       price.FromAmount(item.Price.Amount, currency),
			Condition:   item.Condition,
			Location:    "Amazon",
			ImageURL:    item.ImageURL,
			ListingURL:  item.DetailPageURL,
			Marketplace: models.MarketplaceAmazon,
		})
	}
	return postFilter(listings, query, f), nil
}

package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"bot-anuncios/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const defaultTimeout = 30 * time.Second

var backgroundImageRegexp = regexp.MustCompile(`background-image:\s*url\(['"]?([^'")]+)['"]?\)`)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// pageFetcher baixa páginas HTML com cabeçalhos de navegador
type pageFetcher struct {
	timeout time.Duration

	once   sync.Once
	client *http.Client
}

func newPageFetcher(timeout time.Duration) *pageFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &pageFetcher{timeout: timeout}
}

func (p *pageFetcher) getClient() *http.Client {
	p.once.Do(func() {
		if p.client == nil {
			p.client = &http.Client{Timeout: p.timeout}
		}
	})
	return p.client
}

// fetchDocument faz o GET e devolve o documento pronto para extração
func (p *pageFetcher) fetchDocument(ctx context.Context, rawURL, acceptLanguage string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("DNT", "1")

	resp, err := p.getClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// pageClient é um cliente que extrai anúncios de HTML bruto
type pageClient struct {
	marketplace    models.Marketplace
	baseURL        string
	acceptLanguage string
	fetcher        *pageFetcher
	buildURL       func(base, query string, f *models.Filter) string
	parse          func(doc *goquery.Document, base string) []models.Listing
}

func (c *pageClient) Marketplace() models.Marketplace {
	return c.marketplace
}

func (c *pageClient) Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	doc, err := c.fetcher.fetchDocument(ctx, c.buildURL(c.baseURL, query, f), c.acceptLanguage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.marketplace, err)
	}

	listings := c.parse(doc, c.baseURL)
	for i := range listings {
		listings[i].Marketplace = c.marketplace
	}
	return postFilter(listings, query, f), nil
}

// firstText devolve o texto do primeiro elemento que casa com o seletor
func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// imageOf procura a imagem do anúncio em data-src, src ou background-image
func imageOf(s *goquery.Selection, selector string) string {
	img := s.Find(selector).First()
	if src := img.AttrOr("data-src", ""); src != "" {
		return src
	}
	if src := img.AttrOr("src", ""); src != "" {
		return src
	}

	style := s.Find(`[style*="background-image"]`).First().AttrOr("style", "")
	if m := backgroundImageRegexp.FindStringSubmatch(style); len(m) > 1 {
		return m[1]
	}
	return ""
}

// absoluteURL resolve links relativos contra a base do marketplace
func absoluteURL(base, href string) string {
	href = cleanURL(strings.TrimSpace(href))
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// cleanURL remove o fragmento da URL
func cleanURL(rawURL string) string {
	parts := strings.Split(rawURL, "#")
	return parts[0]
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// searchURL monta base+path com os parâmetros informados, ignorando os vazios
func searchURL(base, path string, params [][2]string) string {
	q := url.Values{}
	for _, p := range params {
		if p[1] != "" {
			q.Add(p[0], p[1])
		}
	}
	return strings.TrimRight(base, "/") + path + "?" + q.Encode()
}

// priceParams extrai os limites de preço do filtro como texto
func priceParams(f *models.Filter) (lo, hi string) {
	if !f.HasPriceBound() {
		return "", ""
	}
	if f.Price.Min != nil {
		lo = formatAmount(*f.Price.Min)
	}
	if f.Price.Max != nil {
		hi = formatAmount(*f.Price.Max)
	}
	return lo, hi
}

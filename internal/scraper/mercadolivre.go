package scraper

import (
	"regexp"
	"strings"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const mercadoLivreBaseURL = "https://lista.mercadolivre.com.br"

var (
	nonDigitRegexp = regexp.MustCompile(`[^0-9.]`)
	slugRegexp     = regexp.MustCompile(`[^a-z0-9áàâãéêíóôõúüç]+`)
)

var mercadoLivreSort = map[models.SortKey]string{
	models.SortPriceAsc:  "_OrderId_PRICE",
	models.SortPriceDesc: "_OrderId_PRICE*DESC",
}

// NewMercadoLivreClient cria o cliente de busca do Mercado Livre
func NewMercadoLivreClient(fetcher *pageFetcher) Client {
	return &pageClient{
		marketplace:    models.MarketplaceMercadoLivre,
		baseURL:        mercadoLivreBaseURL,
		acceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		fetcher:        fetcher,
		buildURL:       mercadoLivreSearchURL,
		parse:          parseMercadoLivre,
	}
}

// mercadoLivreSearchURL monta a URL de listagem, ex:
// https://lista.mercadolivre.com.br/lampada-vintage_PriceRange_0-80_OrderId_PRICE
func mercadoLivreSearchURL(base, query string, f *models.Filter) string {
	slug := strings.Trim(slugRegexp.ReplaceAllString(strings.ToLower(query), "-"), "-")

	var suffix string
	lo, hi := priceParams(f)
	if lo != "" || hi != "" {
		if lo == "" {
			lo = "0"
		}
		if hi == "" {
			hi = "*"
		}
		suffix += "_PriceRange_" + lo + "-" + hi
	}
	suffix += mercadoLivreSort[f.Sort()]

	return strings.TrimRight(base, "/") + "/" + slug + suffix
}

func parseMercadoLivre(doc *goquery.Document, base string) []models.Listing {
	var listings []models.Listing

	doc.Find("li.ui-search-layout__item, div.poly-card").Each(func(i int, s *goquery.Selection) {
		link := s.Find("a.ui-search-link, a.poly-component__title, h2 a, h3 a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = firstText(s, "h2.ui-search-item__title, .poly-component__title, h2, h3")
		}

		var p string
		if v, ok := mercadoLivrePrice(s); ok {
			p = price.Format(v, price.BRL)
		}

		listings = append(listings, models.Listing{
			Title:      title,
			Price:      p,
			Condition:  firstText(s, ".ui-search-item__group__element--condition, .poly-component__item-condition"),
			Location:   firstText(s, ".ui-search-item__location, .poly-component__location"),
			ImageURL:   imageOf(s, "img"),
			ListingURL: absoluteURL(base, link.AttrOr("href", "")),
		})
	})

	return listings
}

// mercadoLivrePrice prioriza o preço promocional do card. Sem ele, usa o
// menor preço encontrado fora da linha de preço anterior.
func mercadoLivrePrice(s *goquery.Selection) (decimal.Decimal, bool) {
	promotionalSelectors := []string{
		".ui-search-price__second-line .andes-money-amount",
		".poly-price__current .andes-money-amount",
	}
	for _, selector := range promotionalSelectors {
		amount := s.Find(selector).First()
		if amount.Length() == 0 {
			continue
		}
		if v, ok := parseBRL(firstText(amount, ".andes-money-amount__fraction"), firstText(amount, ".andes-money-amount__cents")); ok {
			return v, true
		}
	}

	var (
		best  decimal.Decimal
		found bool
	)
	s.Find(".andes-money-amount").Not(".andes-money-amount--previous").Each(func(i int, amount *goquery.Selection) {
		v, ok := parseBRL(firstText(amount, ".andes-money-amount__fraction"), firstText(amount, ".andes-money-amount__cents"))
		if ok && (!found || v.LessThan(best)) {
			best, found = v, true
		}
	})
	return best, found
}

// parseBRL converte a parte inteira ("1.299") e os centavos ("90") em valor.
// O ponto na parte inteira é sempre separador de milhar.
func parseBRL(fraction, cents string) (decimal.Decimal, bool) {
	fraction = strings.ReplaceAll(fraction, ".", "")
	fraction = strings.ReplaceAll(fraction, ",", ".")
	fraction = nonDigitRegexp.ReplaceAllString(fraction, "")
	if fraction == "" {
		return decimal.Zero, false
	}

	cents = nonDigitRegexp.ReplaceAllString(strings.ReplaceAll(cents, ".", ""), "")
	if cents != "" && !strings.Contains(fraction, ".") {
		fraction += "." + cents
	}

	v, err := decimal.NewFromString(fraction)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

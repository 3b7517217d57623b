// Package pipeline aplica os filtros e a ordenação sobre anúncios canônicos.
// Todas as funções são puras: não alteram a lista recebida.
package pipeline

import (
	"sort"
	"strings"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"github.com/shopspring/decimal"
)

// Matches aplica a conjunção de predicados a um anúncio:
// título contém a consulta, preço dentro da faixa, condição e localização.
// location.distance não é aplicado.
func Matches(l models.Listing, query string, f *models.Filter) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" && !strings.Contains(strings.ToLower(l.Title), q) {
		return false
	}

	if f == nil {
		return true
	}

	if f.HasPriceBound() {
		value, ok := price.Parse(l.Price)
		if !ok {
			return false
		}
		if f.Price.Min != nil && value.LessThan(decimal.NewFromFloat(*f.Price.Min)) {
			return false
		}
		if f.Price.Max != nil && value.GreaterThan(decimal.NewFromFloat(*f.Price.Max)) {
			return false
		}
	}

	if f.Condition != "" {
		if !strings.Contains(strings.ToLower(l.Condition), strings.ToLower(f.Condition)) {
			return false
		}
	}

	if f.Location != nil && f.Location.ZipCode != "" {
		if !strings.Contains(strings.ToLower(l.Location), strings.ToLower(f.Location.ZipCode)) {
			return false
		}
	}

	return true
}

// Filter mantém apenas os anúncios que passam em Matches, preservando a ordem
func Filter(listings []models.Listing, query string, f *models.Filter) []models.Listing {
	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, query, f) {
			result = append(result, l)
		}
	}
	return result
}

// Sort devolve uma cópia ordenada de forma estável.
// best-match e ending-soon preservam a ordem recebida.
func Sort(listings []models.Listing, key models.SortKey) []models.Listing {
	result := make([]models.Listing, len(listings))
	copy(result, listings)

	switch key {
	case models.SortPriceAsc:
		sortByPrice(result, false)
	case models.SortPriceDesc:
		sortByPrice(result, true)
	case models.SortNewest:
		sort.SliceStable(result, func(i, j int) bool {
			a, b := result[i].PostedAt, result[j].PostedAt
			if a.IsZero() || b.IsZero() {
				return !a.IsZero() && b.IsZero()
			}
			return a.After(b)
		})
	case models.SortEndingSoon:
		// nenhuma fonte informa o fim do anúncio; identidade
	default:
		// best-match: ordem de chegada
	}

	return result
}

// sortByPrice ordena pelo valor numérico; preços ilegíveis ficam no fim
func sortByPrice(listings []models.Listing, desc bool) {
	type keyed struct {
		value decimal.Decimal
		ok    bool
	}
	keys := make(map[string]keyed, len(listings))
	for _, l := range listings {
		if _, done := keys[l.Price]; !done {
			v, ok := price.Parse(l.Price)
			keys[l.Price] = keyed{v, ok}
		}
	}

	sort.SliceStable(listings, func(i, j int) bool {
		a, b := keys[listings[i].Price], keys[listings[j].Price]
		if !a.ok || !b.ok {
			return a.ok && !b.ok
		}
		if desc {
			return a.value.GreaterThan(b.value)
		}
		return a.value.LessThan(b.value)
	})
}

// Apply filtra e ordena conforme o filtro
func Apply(listings []models.Listing, query string, f *models.Filter) []models.Listing {
	return Sort(Filter(listings, query, f), f.Sort())
}

// Dedupe descarta anúncios inválidos e URLs repetidas, mantendo a primeira ocorrência
func Dedupe(listings []models.Listing) []models.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Valid() {
			continue
		}
		url := strings.TrimSpace(l.ListingURL)
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		result = append(result, l)
	}
	return result
}

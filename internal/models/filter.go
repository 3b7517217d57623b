package models

import (
	"math"
	"strings"
)

// SortKey é a ordenação pedida para os resultados
type SortKey string

const (
	SortBestMatch  SortKey = "best-match"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortNewest     SortKey = "newest"
	SortEndingSoon SortKey = "ending-soon"
)

// sortAliases aceita os rótulos da interface antiga além dos identificadores canônicos
var sortAliases = map[string]SortKey{
	"best-match":          SortBestMatch,
	"best match":          SortBestMatch,
	"pertinenza":          SortBestMatch,
	"relevancia":          SortBestMatch,
	"price-asc":           SortPriceAsc,
	"price: low to high":  SortPriceAsc,
	"prezzo: crescente":   SortPriceAsc,
	"preco-asc":           SortPriceAsc,
	"price-desc":          SortPriceDesc,
	"price: high to low":  SortPriceDesc,
	"prezzo: decrescente": SortPriceDesc,
	"preco-desc":          SortPriceDesc,
	"newest":              SortNewest,
	"newest first":        SortNewest,
	"più recenti":         SortNewest,
	"recentes":            SortNewest,
	"ending-soon":         SortEndingSoon,
	"ending soon":         SortEndingSoon,
	"in scadenza":         SortEndingSoon,
}

// ParseSortKey converte um rótulo de ordenação. Vazio equivale a best-match.
func ParseSortKey(s string) (SortKey, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortBestMatch, true
	}
	key, ok := sortAliases[s]
	return key, ok
}

// PriceRange limita o preço; nil significa sem limite naquele lado
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// LocationFilter filtra por localização. Distance é aceito mas não aplicado.
type LocationFilter struct {
	Distance *float64 `json:"distance,omitempty"`
	ZipCode  string   `json:"zipCode,omitempty"`
}

// Filter é a especificação de filtros de uma busca.
// Campo ausente significa "sem restrição naquela dimensão".
type Filter struct {
	Price     *PriceRange     `json:"price,omitempty"`
	Condition string          `json:"condition,omitempty"`
	Location  *LocationFilter `json:"location,omitempty"`
	SortBy    SortKey         `json:"sortBy,omitempty"`
}

// HasPriceBound informa se há algum limite de preço ativo
func (f *Filter) HasPriceBound() bool {
	return f != nil && f.Price != nil && (f.Price.Min != nil || f.Price.Max != nil)
}

// Sort retorna a ordenação efetiva do filtro
func (f *Filter) Sort() SortKey {
	if f == nil || f.SortBy == "" {
		return SortBestMatch
	}
	return f.SortBy
}

// Validate rejeita filtros malformados antes de chegarem ao agregador
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}

	if f.Price != nil {
		for field, v := range map[string]*float64{"price.min": f.Price.Min, "price.max": f.Price.Max} {
			if v == nil {
				continue
			}
			if math.IsNaN(*v) || math.IsInf(*v, 0) {
				return &ValidationError{Field: field, Reason: "valor não numérico"}
			}
			if *v < 0 {
				return &ValidationError{Field: field, Reason: "valor negativo"}
			}
		}
		if f.Price.Min != nil && f.Price.Max != nil && *f.Price.Min > *f.Price.Max {
			return &ValidationError{Field: "price", Reason: "mínimo maior que o máximo"}
		}
	}

	if f.Location != nil && f.Location.Distance != nil {
		d := *f.Location.Distance
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return &ValidationError{Field: "location.distance", Reason: "distância inválida"}
		}
	}

	if f.SortBy != "" {
		key, ok := ParseSortKey(string(f.SortBy))
		if !ok {
			return &ValidationError{Field: "sortBy", Reason: "ordenação desconhecida: " + string(f.SortBy)}
		}
		f.SortBy = key
	}

	return nil
}

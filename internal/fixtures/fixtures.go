// Package fixtures mantém a tabela estática de anúncios usada para os
// marketplaces que ainda não têm cliente ativo. A tabela é carregada uma única
// vez e nunca alterada depois disso.
package fixtures

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var embedded []byte

type entry struct {
	Title      string `yaml:"title"`
	Price      string `yaml:"price"`
	Condition  string `yaml:"condition"`
	Location   string `yaml:"location"`
	ImageURL   string `yaml:"image_url"`
	ListingURL string `yaml:"listing_url"`
	PostedAgo  string `yaml:"posted_ago"`
}

// Table é a tabela imutável de anúncios por marketplace
type Table struct {
	listings map[models.Marketplace][]models.Listing
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default retorna a tabela embutida, carregada na primeira chamada
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(embedded, time.Now())
		if err != nil {
			panic(fmt.Sprintf("fixtures embutidas inválidas: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load interpreta uma tabela YAML. posted_ago é resolvido em relação a now.
func Load(data []byte, now time.Time) (*Table, error) {
	var raw map[string][]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("erro ao ler fixtures: %w", err)
	}

	t := &Table{listings: make(map[models.Marketplace][]models.Listing, len(raw))}
	for name, entries := range raw {
		m, ok := models.ParseMarketplace(name)
		if !ok {
			return nil, fmt.Errorf("marketplace desconhecido nas fixtures: %s", name)
		}

		for i, e := range entries {
			l := models.Listing{
				Title:       e.Title,
				Price:       price.Normalize(e.Price),
				Condition:   e.Condition,
				Location:    e.Location,
				ImageURL:    e.ImageURL,
				ListingURL:  e.ListingURL,
				Marketplace: m,
			}
			if e.PostedAgo != "" {
				ago, err := time.ParseDuration(e.PostedAgo)
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: posted_ago inválido: %w", name, i, err)
				}
				l.PostedAt = now.Add(-ago)
			}
			if !l.Valid() {
				return nil, fmt.Errorf("%s[%d]: título, preço e URL são obrigatórios", name, i)
			}
			t.listings[m] = append(t.listings[m], l)
		}
	}

	return t, nil
}

// For retorna uma cópia dos anúncios de um marketplace
func (t *Table) For(m models.Marketplace) []models.Listing {
	src := t.listings[m]
	out := make([]models.Listing, len(src))
	copy(out, src)
	return out
}

// Marketplaces lista, na ordem canônica, os marketplaces presentes na tabela
func (t *Table) Marketplaces() []models.Marketplace {
	var out []models.Marketplace
	for _, m := range models.Marketplaces {
		if len(t.listings[m]) > 0 {
			out = append(out, m)
		}
	}
	return out
}

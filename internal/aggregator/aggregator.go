// Package aggregator distribui uma consulta entre todos os clientes de
// marketplace, junta os resultados e aplica filtros e ordenação.
//
// Com a ordenação best-match a ordem final é a ordem de chegada das respostas
// e pode variar entre execuções.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/pipeline"
	"bot-anuncios/internal/scraper"
)

const defaultTimeout = 45 * time.Second

// ClientSource fornece os clientes ativos
type ClientSource interface {
	GetAllClients() []scraper.Client
}

// FixtureSource fornece anúncios estáticos para marketplaces sem cliente
type FixtureSource interface {
	For(m models.Marketplace) []models.Listing
}

// Aggregator faz a busca em todos os marketplaces
type Aggregator struct {
	clients  ClientSource
	fixtures FixtureSource
	timeout  time.Duration
}

// New cria o agregador. timeout limita cada cliente individualmente.
func New(clients ClientSource, fixtures FixtureSource, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{
		clients:  clients,
		fixtures: fixtures,
		timeout:  timeout,
	}
}

type contribution struct {
	marketplace models.Marketplace
	listings    []models.Listing
}

// SearchAll consulta todos os clientes em paralelo e devolve a lista final.
// Nunca falha como um todo: um cliente com erro ou lento só deixa de contribuir.
// O filtro deve ter passado por Validate antes.
func (a *Aggregator) SearchAll(ctx context.Context, query string, f *models.Filter) []models.Listing {
	if f != nil && f.Location != nil && f.Location.Distance != nil {
		slog.Warn("filtro de distância não é aplicado", "distance", *f.Location.Distance)
	}

	clients := a.clients.GetAllClients()
	results := make(chan contribution, len(clients))
	covered := make(map[models.Marketplace]bool, len(clients))
	for _, c := range clients {
		covered[c.Marketplace()] = true
		go a.invoke(ctx, c, query, f, results)
	}

	var merged []models.Listing
	for range clients {
		r := <-results
		merged = append(merged, r.listings...)
	}

	if a.fixtures != nil {
		for _, m := range models.Marketplaces {
			if covered[m] {
				continue
			}
			merged = append(merged, pipeline.Filter(a.fixtures.For(m), query, f)...)
		}
	}

	result := pipeline.Apply(pipeline.Dedupe(merged), query, f)
	slog.Debug("busca concluída", "query", query, "clients", len(clients), "results", len(result))
	return result
}

// invoke chama um cliente com prazo próprio. Erros, pânicos e estouro de
// prazo viram contribuição vazia.
func (a *Aggregator) invoke(ctx context.Context, c scraper.Client, query string, f *models.Filter, out chan<- contribution) {
	m := c.Marketplace()
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		listings []models.Listing
		err      error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		listings, err := c.Search(callCtx, query, f)
		done <- result{listings: listings, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			slog.Warn("falha na fonte", "marketplace", m, "error", r.err)
			out <- contribution{marketplace: m}
			return
		}
		// cópia: o slice devolvido pertence à fonte
		listings := make([]models.Listing, len(r.listings))
		copy(listings, r.listings)
		for i := range listings {
			if listings[i].Marketplace == "" {
				listings[i].Marketplace = m
			}
		}
		out <- contribution{marketplace: m, listings: listings}
	case <-callCtx.Done():
		slog.Warn("fonte sem resposta no prazo", "marketplace", m, "timeout", a.timeout, "error", callCtx.Err())
		out <- contribution{marketplace: m}
	}
}

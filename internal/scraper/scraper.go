package scraper

import (
	"context"
	"sync"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/pipeline"
)

// Client define a interface para os clientes de busca de cada marketplace
type Client interface {
	Marketplace() models.Marketplace
	// Search devolve anúncios canônicos já filtrados localmente.
	// Erros ficam restritos ao cliente; quem chama trata como contribuição vazia.
	Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error)
}

// Factory constrói um cliente. Só é chamada uma vez por marketplace.
type Factory func() Client

// Credentials agrupa as credenciais e URL base de uma API de marketplace
type Credentials struct {
	APIKey    string
	APISecret string
	AppID     string
	BaseURL   string
}

// Options configura os clientes padrão
type Options struct {
	Timeout time.Duration
	Ebay    Credentials
	Amazon  Credentials
}

type slot struct {
	once    sync.Once
	factory Factory
	client  Client
}

// Registry mantém um cliente por marketplace, criado no primeiro uso
type Registry struct {
	mu    sync.Mutex
	order []models.Marketplace
	slots map[models.Marketplace]*slot
}

// NewRegistry cria um registro vazio
func NewRegistry() *Registry {
	return &Registry{slots: make(map[models.Marketplace]*slot)}
}

// NewDefaultRegistry registra todos os clientes implementados.
// Os clientes que dependem do navegador usam o pool informado.
func NewDefaultRegistry(opts Options, browser *BrowserPool) *Registry {
	r := NewRegistry()
	fetcher := newPageFetcher(opts.Timeout)

	r.Register(models.MarketplaceEbay, func() Client {
		return NewEbayClient(opts.Ebay, browser, opts.Timeout)
	})
	r.Register(models.MarketplaceAmazon, func() Client {
		return NewAmazonClient(opts.Amazon, opts.Timeout)
	})
	// sem navegador o Subito fica coberto pelas fixtures
	if browser.Available() {
		r.Register(models.MarketplaceSubito, func() Client {
			return NewSubitoClient(browser)
		})
	}
	r.Register(models.MarketplaceLeboncoin, func() Client {
		return NewLeboncoinClient(fetcher)
	})
	r.Register(models.MarketplaceWallapop, func() Client {
		return NewWallapopClient(fetcher)
	})
	r.Register(models.MarketplaceAllegro, func() Client {
		return NewAllegroClient(fetcher)
	})
	r.Register(models.MarketplaceMercadoLivre, func() Client {
		return NewMercadoLivreClient(fetcher)
	})

	return r
}

// Register associa uma fábrica a um marketplace, substituindo a anterior
func (r *Registry) Register(m models.Marketplace, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[m]; !exists {
		r.order = append(r.order, m)
	}
	r.slots[m] = &slot{factory: f}
}

// GetClient retorna o cliente do marketplace, ou nil se não houver implementação
func (r *Registry) GetClient(m models.Marketplace) Client {
	r.mu.Lock()
	s, ok := r.slots[m]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	s.once.Do(func() {
		s.client = s.factory()
	})
	return s.client
}

// GetAllClients instancia (se preciso) e retorna todos os clientes registrados
func (r *Registry) GetAllClients() []Client {
	var clients []Client
	for _, m := range r.Marketplaces() {
		if c := r.GetClient(m); c != nil {
			clients = append(clients, c)
		}
	}
	return clients
}

// Marketplaces lista os marketplaces com cliente registrado, na ordem de registro
func (r *Registry) Marketplaces() []models.Marketplace {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Marketplace, len(r.order))
	copy(out, r.order)
	return out
}

// postFilter aplica localmente os filtros que o marketplace não aceita na requisição
func postFilter(listings []models.Listing, query string, f *models.Filter) []models.Listing {
	return pipeline.Apply(pipeline.Dedupe(listings), query, f)
}

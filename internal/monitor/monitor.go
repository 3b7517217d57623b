// Package monitor reavalia as buscas salvas e registra os anúncios que ainda
// não tinham sido vistos, gerando uma notificação para cada um.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/store"

	"github.com/google/uuid"
)

// Searcher executa a busca agregada
type Searcher interface {
	SearchAll(ctx context.Context, query string, f *models.Filter) []models.Listing
}

// Notifier entrega uma notificação recém-criada ao usuário
type Notifier interface {
	Notify(ctx context.Context, n models.Notification, l models.Listing) error
}

// Monitor gerencia a verificação periódica das buscas salvas
type Monitor struct {
	store    store.Store
	searcher Searcher
	notifier Notifier
	interval time.Duration

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New cria uma nova instância do monitor. notifier pode ser nil.
func New(st store.Store, searcher Searcher, notifier Notifier, interval time.Duration) *Monitor {
	return &Monitor{
		store:    st,
		searcher: searcher,
		notifier: notifier,
		interval: interval,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Start verifica imediatamente e depois a cada intervalo, até ctx ser cancelado
func (m *Monitor) Start(ctx context.Context) {
	slog.Info("monitor iniciado", "interval", m.interval)

	m.CheckAllUsers(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor encerrado")
			return
		case <-ticker.C:
			m.CheckAllUsers(ctx)
		}
	}
}

// CheckAllUsers roda CheckForNewResults para cada usuário com busca ativa
func (m *Monitor) CheckAllUsers(ctx context.Context) {
	users, err := m.store.ListActiveUserIDs(ctx)
	if err != nil {
		slog.Error("erro ao listar usuários com buscas ativas", "error", err)
		return
	}

	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		n, err := m.CheckForNewResults(ctx, userID)
		if err != nil {
			slog.Error("erro ao verificar buscas", "user", userID, "error", err)
		}
		if n > 0 {
			slog.Info("novos anúncios encontrados", "user", userID, "count", n)
		}
	}
}

// CheckForNewResults reexecuta as buscas ativas do usuário e registra os
// anúncios cujas URLs ainda não eram conhecidas. Retorna quantas
// notificações foram criadas, mesmo quando alguma busca falha.
func (m *Monitor) CheckForNewResults(ctx context.Context, userID int64) (int, error) {
	runID := uuid.NewString()
	log := slog.With("run", runID, "user", userID)

	searches, err := m.store.ListSavedSearches(ctx, userID, true)
	if err != nil {
		return 0, fmt.Errorf("erro ao buscar buscas salvas: %w", err)
	}

	total := 0
	var errs []error
	for _, s := range searches {
		n, err := m.checkSearch(ctx, log, s)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("busca %d: %w", s.ID, err))
		}
	}

	log.Debug("verificação concluída", "searches", len(searches), "new", total)
	return total, errors.Join(errs...)
}

// searchLock retorna o mutex exclusivo de uma busca
func (m *Monitor) searchLock(searchID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	mu, ok := m.locks[searchID]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[searchID] = mu
	}
	return mu
}

func (m *Monitor) checkSearch(ctx context.Context, log *slog.Logger, s models.SavedSearch) (int, error) {
	lock := m.searchLock(s.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := m.store.ListListingsBySearch(ctx, s.ID)
	if err != nil {
		return 0, fmt.Errorf("erro ao carregar anúncios conhecidos: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, l := range existing {
		known[l.ListingURL] = true
	}

	results := m.searcher.SearchAll(ctx, s.Query, s.Filters)

	count := 0
	for _, l := range results {
		if known[l.ListingURL] {
			continue
		}

		// anúncio e notificação entram juntos: se a notificação falhar, o anúncio
		// continua desconhecido e é tentado de novo na próxima verificação
		created, n, err := m.store.CreateListingWithNotification(ctx, s.ID, l, func(c models.Listing) models.Notification {
			return models.NewListingNotification(s.UserID, s.ID, c)
		})
		if errors.Is(err, models.ErrDuplicateListing) {
			// outra instância já registrou
			known[l.ListingURL] = true
			continue
		}
		if err != nil {
			return count, fmt.Errorf("erro ao registrar anúncio: %w", err)
		}
		known[l.ListingURL] = true
		count++

		log.Debug("anúncio novo", "search", s.ID, "listing", created.ID, "url", created.ListingURL)

		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, n, created); err != nil {
				log.Warn("erro ao enviar notificação", "notification", n.ID, "error", err)
			}
		}
	}

	return count, nil
}

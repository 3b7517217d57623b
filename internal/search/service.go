// Package search reúne as operações expostas à camada de entrega: buscas
// salvas, busca avulsa, resultados e notificações.
//
// Os erros seguem três formas: models.ErrNotFound para ids inexistentes ou de
// outro usuário, *models.ValidationError para consulta ou filtro malformados
// e models.ErrInternal (embrulhado) para falhas de persistência.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/store"
)

// Searcher executa a busca agregada
type Searcher interface {
	SearchAll(ctx context.Context, query string, f *models.Filter) []models.Listing
}

// Checker reavalia as buscas salvas de um usuário
type Checker interface {
	CheckForNewResults(ctx context.Context, userID int64) (int, error)
}

// Service implementa os casos de uso sobre buscas e notificações
type Service struct {
	store    store.Store
	searcher Searcher
	checker  Checker
}

// New cria o serviço. checker pode ser nil quando não há verificação sob demanda.
func New(st store.Store, searcher Searcher, checker Checker) *Service {
	return &Service{store: st, searcher: searcher, checker: checker}
}

// internal converte falhas de persistência em ErrInternal, preservando ErrNotFound
func internal(err error) error {
	if err == nil || errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrInternal, err)
}

func validate(query string, f *models.Filter) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &models.ValidationError{Field: "query", Reason: "consulta vazia"}
	}
	if err := f.Validate(); err != nil {
		return "", err
	}
	return query, nil
}

// CreateSearch salva uma busca ativa para o usuário
func (s *Service) CreateSearch(ctx context.Context, userID int64, query string, f *models.Filter) (models.SavedSearch, error) {
	query, err := validate(query, f)
	if err != nil {
		return models.SavedSearch{}, err
	}

	saved, err := s.store.CreateSearch(ctx, models.SavedSearch{
		UserID:  userID,
		Query:   query,
		Filters: f,
		Active:  true,
	})
	if err != nil {
		return models.SavedSearch{}, internal(err)
	}
	return saved, nil
}

// ListSearches retorna todas as buscas do usuário, ativas ou não
func (s *Service) ListSearches(ctx context.Context, userID int64) ([]models.SavedSearch, error) {
	searches, err := s.store.ListSavedSearches(ctx, userID, false)
	return searches, internal(err)
}

// ownedSearch carrega a busca e confere o dono
func (s *Service) ownedSearch(ctx context.Context, userID, searchID int64) (models.SavedSearch, error) {
	saved, err := s.store.GetSearch(ctx, searchID)
	if err != nil {
		return models.SavedSearch{}, internal(err)
	}
	if saved.UserID != userID {
		return models.SavedSearch{}, models.ErrNotFound
	}
	return saved, nil
}

// SetActive ativa ou pausa uma busca do usuário
func (s *Service) SetActive(ctx context.Context, userID, searchID int64, active bool) (models.SavedSearch, error) {
	saved, err := s.ownedSearch(ctx, userID, searchID)
	if err != nil {
		return models.SavedSearch{}, err
	}
	if err := s.store.SetSearchActive(ctx, searchID, active); err != nil {
		return models.SavedSearch{}, internal(err)
	}
	saved.Active = active
	return saved, nil
}

// Search faz uma busca avulsa, sem gravar nada
func (s *Service) Search(ctx context.Context, query string, f *models.Filter) ([]models.Listing, error) {
	query, err := validate(query, f)
	if err != nil {
		return nil, err
	}
	return s.searcher.SearchAll(ctx, query, f), nil
}

// Results retorna os anúncios registrados para uma busca do usuário
func (s *Service) Results(ctx context.Context, userID, searchID int64) ([]models.Listing, error) {
	if _, err := s.ownedSearch(ctx, userID, searchID); err != nil {
		return nil, err
	}
	listings, err := s.store.ListListingsBySearch(ctx, searchID)
	return listings, internal(err)
}

// MarkSeen marca como visto um anúncio de uma das buscas do usuário
func (s *Service) MarkSeen(ctx context.Context, userID, listingID int64) error {
	searches, err := s.store.ListSavedSearches(ctx, userID, false)
	if err != nil {
		return internal(err)
	}
	for _, saved := range searches {
		listings, err := s.store.ListListingsBySearch(ctx, saved.ID)
		if err != nil {
			return internal(err)
		}
		for _, l := range listings {
			if l.ID == listingID {
				return internal(s.store.MarkListingSeen(ctx, listingID))
			}
		}
	}
	return models.ErrNotFound
}

// CheckNow reavalia as buscas ativas do usuário imediatamente
func (s *Service) CheckNow(ctx context.Context, userID int64) (int, error) {
	if s.checker == nil {
		return 0, fmt.Errorf("%w: verificação indisponível", models.ErrInternal)
	}
	n, err := s.checker.CheckForNewResults(ctx, userID)
	return n, internal(err)
}

// Notifications lista as notificações do usuário, mais recentes primeiro
func (s *Service) Notifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.store.ListNotifications(ctx, userID, unreadOnly)
	return notifications, internal(err)
}

// UnreadCount conta as notificações não lidas
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	unread, err := s.store.ListNotifications(ctx, userID, true)
	if err != nil {
		return 0, internal(err)
	}
	return len(unread), nil
}

// MarkRead marca uma notificação do usuário como lida
func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	notifications, err := s.store.ListNotifications(ctx, userID, false)
	if err != nil {
		return internal(err)
	}
	for _, n := range notifications {
		if n.ID == notificationID {
			return internal(s.store.MarkNotificationRead(ctx, notificationID))
		}
	}
	return models.ErrNotFound
}

// MarkAllRead marca todas as notificações do usuário como lidas
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	return n, internal(err)
}

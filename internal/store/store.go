// Package store define as operações de persistência usadas pelo detector de
// mudanças e pelo serviço de buscas, e traz uma implementação em memória.
package store

import (
	"context"

	"bot-anuncios/internal/models"
)

// Store é o contrato de persistência. Ids inexistentes retornam
// models.ErrNotFound; URL repetida na mesma busca retorna
// models.ErrDuplicateListing.
type Store interface {
	CreateSearch(ctx context.Context, s models.SavedSearch) (models.SavedSearch, error)
	GetSearch(ctx context.Context, id int64) (models.SavedSearch, error)
	ListSavedSearches(ctx context.Context, userID int64, activeOnly bool) ([]models.SavedSearch, error)
	SetSearchActive(ctx context.Context, id int64, active bool) error
	// ListActiveUserIDs lista os usuários com ao menos uma busca ativa
	ListActiveUserIDs(ctx context.Context) ([]int64, error)

	CreateListing(ctx context.Context, searchID int64, l models.Listing) (models.Listing, error)
	// CreateListingWithNotification grava o anúncio e a notificação montada por
	// notify a partir dele. Ou os dois são gravados, ou nenhum.
	CreateListingWithNotification(ctx context.Context, searchID int64, l models.Listing, notify func(models.Listing) models.Notification) (models.Listing, models.Notification, error)
	ListListingsBySearch(ctx context.Context, searchID int64) ([]models.Listing, error)
	MarkListingSeen(ctx context.Context, id int64) error

	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error)

	Close() error
}

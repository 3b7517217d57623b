package models

import (
	"fmt"
	"time"
)

// NotificationKind é o tipo de uma notificação
type NotificationKind string

const (
	NotificationNewListing NotificationKind = "new_listing"
	NotificationPriceDrop  NotificationKind = "price_drop"
)

// Notification é um aviso gerado para o usuário dono de uma busca salva
type Notification struct {
	ID        int64
	UserID    int64
	SearchID  int64
	ListingID int64
	Kind      NotificationKind
	Message   string
	Read      bool
	CreatedAt time.Time
}

// NewListingNotification monta a notificação de anúncio novo
func NewListingNotification(userID, searchID int64, l Listing) Notification {
	return Notification{
		UserID:    userID,
		SearchID:  searchID,
		ListingID: l.ID,
		Kind:      NotificationNewListing,
		Message:   fmt.Sprintf("Novo anúncio para \"%s\" encontrado em %s por %s", l.Title, l.Marketplace, l.Price),
	}
}

// PriceDropNotification monta a notificação de queda de preço.
// Nenhum gatilho gera este tipo ainda.
func PriceDropNotification(userID, searchID int64, l Listing, oldPrice string) Notification {
	return Notification{
		UserID:    userID,
		SearchID:  searchID,
		ListingID: l.ID,
		Kind:      NotificationPriceDrop,
		Message:   fmt.Sprintf("Preço reduzido para \"%s\" de %s para %s", l.Title, oldPrice, l.Price),
	}
}

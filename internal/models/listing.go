package models

import (
	"strings"
	"time"
)

// Listing é a forma canônica de um anúncio, produzida por todas as fontes.
// ListingURL é a chave de deduplicação global.
type Listing struct {
	ID          int64 // atribuído ao persistir
	SearchID    int64 // busca salva à qual o anúncio pertence
	Title       string
	Price       string // preço normalizado, ex: "75€"
	Condition   string
	Location    string
	ImageURL    string
	ListingURL  string
	Marketplace Marketplace
	PostedAt    time.Time // zero quando a fonte não informa
	Seen        bool
	CreatedAt   time.Time
}

// Valid informa se o anúncio tem os campos obrigatórios (título, preço e URL)
func (l Listing) Valid() bool {
	return strings.TrimSpace(l.Title) != "" &&
		strings.TrimSpace(l.Price) != "" &&
		strings.TrimSpace(l.ListingURL) != ""
}

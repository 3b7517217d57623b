package models

import "time"

// SavedSearch representa uma busca salva, reavaliada periodicamente enquanto ativa
type SavedSearch struct {
	ID        int64
	UserID    int64
	Query     string
	Filters   *Filter
	Active    bool
	CreatedAt time.Time
}

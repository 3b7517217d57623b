package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"bot-anuncios/internal/models"
)

type listingKey struct {
	searchID int64
	url      string
}

var _ Store = (*Memory)(nil)

// Memory guarda tudo em mapas indexados por ids incrementais
type Memory struct {
	mu sync.RWMutex

	nextSearchID       int64
	nextListingID      int64
	nextNotificationID int64

	searches      map[int64]models.SavedSearch
	listings      map[int64]models.Listing
	listingByURL  map[listingKey]int64
	notifications map[int64]models.Notification
}

// NewMemory cria um store vazio
func NewMemory() *Memory {
	return &Memory{
		searches:      make(map[int64]models.SavedSearch),
		listings:      make(map[int64]models.Listing),
		listingByURL:  make(map[listingKey]int64),
		notifications: make(map[int64]models.Notification),
	}
}

func (m *Memory) CreateSearch(ctx context.Context, s models.SavedSearch) (models.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSearchID++
	s.ID = m.nextSearchID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.Filters = copyFilter(s.Filters)
	m.searches[s.ID] = s
	return s, nil
}

func (m *Memory) GetSearch(ctx context.Context, id int64) (models.SavedSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.searches[id]
	if !ok {
		return models.SavedSearch{}, models.ErrNotFound
	}
	s.Filters = copyFilter(s.Filters)
	return s, nil
}

func (m *Memory) ListSavedSearches(ctx context.Context, userID int64, activeOnly bool) ([]models.SavedSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SavedSearch
	for _, s := range m.searches {
		if s.UserID != userID || (activeOnly && !s.Active) {
			continue
		}
		s.Filters = copyFilter(s.Filters)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SetSearchActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.searches[id]
	if !ok {
		return models.ErrNotFound
	}
	s.Active = active
	m.searches[id] = s
	return nil
}

func (m *Memory) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]bool)
	var out []int64
	for _, s := range m.searches {
		if s.Active && !seen[s.UserID] {
			seen[s.UserID] = true
			out = append(out, s.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *Memory) CreateListing(ctx context.Context, searchID int64, l models.Listing) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.createListing(searchID, l)
}

func (m *Memory) CreateListingWithNotification(ctx context.Context, searchID int64, l models.Listing, notify func(models.Listing) models.Notification) (models.Listing, models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created, err := m.createListing(searchID, l)
	if err != nil {
		return models.Listing{}, models.Notification{}, err
	}
	return created, m.createNotification(notify(created)), nil
}

// createListing exige m.mu travado
func (m *Memory) createListing(searchID int64, l models.Listing) (models.Listing, error) {
	if _, ok := m.searches[searchID]; !ok {
		return models.Listing{}, models.ErrNotFound
	}
	key := listingKey{searchID: searchID, url: l.ListingURL}
	if _, dup := m.listingByURL[key]; dup {
		return models.Listing{}, models.ErrDuplicateListing
	}

	m.nextListingID++
	l.ID = m.nextListingID
	l.SearchID = searchID
	l.Seen = false
	l.CreatedAt = time.Now()
	m.listings[l.ID] = l
	m.listingByURL[key] = l.ID
	return l, nil
}

func (m *Memory) ListListingsBySearch(ctx context.Context, searchID int64) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Listing
	for _, l := range m.listings {
		if l.SearchID == searchID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) MarkListingSeen(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return models.ErrNotFound
	}
	l.Seen = true
	m.listings[id] = l
	return nil
}

func (m *Memory) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.createNotification(n), nil
}

// createNotification exige m.mu travado
func (m *Memory) createNotification(n models.Notification) models.Notification {
	m.nextNotificationID++
	n.ID = m.nextNotificationID
	n.Read = false
	n.CreatedAt = time.Now()
	m.notifications[n.ID] = n
	return n
}

func (m *Memory) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	// mais recentes primeiro
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return models.ErrNotFound
	}
	n.Read = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			m.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (m *Memory) Close() error {
	return nil
}

// copyFilter evita que quem chama altere o filtro guardado
func copyFilter(f *models.Filter) *models.Filter {
	if f == nil {
		return nil
	}
	out := *f
	if f.Price != nil {
		p := *f.Price
		out.Price = &p
	}
	if f.Location != nil {
		loc := *f.Location
		out.Location = &loc
	}
	return &out
}

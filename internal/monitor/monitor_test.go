package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/store"
)

type fakeSearcher struct {
	mu       sync.Mutex
	listings []models.Listing
	calls    int
	queries  []string
}

func (f *fakeSearcher) SearchAll(ctx context.Context, query string, _ *models.Filter) []models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	out := make([]models.Listing, len(f.listings))
	copy(out, f.listings)
	return out
}

func (f *fakeSearcher) set(listings ...models.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = listings
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, n models.Notification, l models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func listing(url string) models.Listing {
	return models.Listing{Title: "Lampada vintage", Price: "75€", ListingURL: url, Marketplace: models.MarketplaceEbay}
}

func setup(t *testing.T) (*store.Memory, *fakeSearcher, models.SavedSearch) {
	t.Helper()
	st := store.NewMemory()
	s, err := st.CreateSearch(context.Background(), models.SavedSearch{UserID: 7, Query: "lampada vintage", Active: true})
	if err != nil {
		t.Fatal(err)
	}
	return st, &fakeSearcher{}, s
}

func TestCheckForNewResultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, searcher, _ := setup(t)
	searcher.set(listing("https://example.com/a"), listing("https://example.com/b"))
	m := New(st, searcher, nil, time.Hour)

	first, err := m.CheckForNewResults(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if first != 2 {
		t.Errorf("primeira execução: esperava 2, veio %d", first)
	}

	second, err := m.CheckForNewResults(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if second != 0 {
		t.Errorf("segunda execução deveria criar 0 notificações, criou %d", second)
	}

	notifications, _ := st.ListNotifications(ctx, 7, false)
	if len(notifications) != 2 {
		t.Errorf("esperava 2 notificações no total, veio %d", len(notifications))
	}
}

func TestCheckForNewResultsSingleNewListing(t *testing.T) {
	ctx := context.Background()
	st, searcher, s := setup(t)
	searcher.set(listing("https://example.com/novo"))
	m := New(st, searcher, nil, time.Hour)

	n, err := m.CheckForNewResults(ctx, 7)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	listings, _ := st.ListListingsBySearch(ctx, s.ID)
	notifications, _ := st.ListNotifications(ctx, 7, false)
	if len(listings) != 1 || len(notifications) != 1 {
		t.Fatalf("anúncios=%d notificações=%d", len(listings), len(notifications))
	}

	got := notifications[0]
	if got.ListingID != listings[0].ID || got.SearchID != s.ID || got.Kind != models.NotificationNewListing {
		t.Errorf("notificação: %+v", got)
	}
	if listings[0].Seen {
		t.Error("anúncio novo não deveria estar visto")
	}
	if !strings.Contains(got.Message, "Lampada vintage") {
		t.Errorf("mensagem: %q", got.Message)
	}
}

// failingStore falha a primeira gravação de anúncio com notificação sem gravar nada
type failingStore struct {
	*store.Memory
	failures int
}

func (f *failingStore) CreateListingWithNotification(ctx context.Context, searchID int64, l models.Listing, notify func(models.Listing) models.Notification) (models.Listing, models.Notification, error) {
	if f.failures > 0 {
		f.failures--
		return models.Listing{}, models.Notification{}, errors.New("notificação indisponível")
	}
	return f.Memory.CreateListingWithNotification(ctx, searchID, l, notify)
}

func TestCheckForNewResultsRetriesAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	mem, searcher, s := setup(t)
	st := &failingStore{Memory: mem, failures: 1}
	searcher.set(listing("https://example.com/novo"))
	m := New(st, searcher, nil, time.Hour)

	if n, err := m.CheckForNewResults(ctx, 7); err == nil || n != 0 {
		t.Fatalf("primeira execução: n=%d err=%v", n, err)
	}
	if listings, _ := mem.ListListingsBySearch(ctx, s.ID); len(listings) != 0 {
		t.Fatalf("anúncio não deveria ficar gravado sem notificação: %+v", listings)
	}

	n, err := m.CheckForNewResults(ctx, 7)
	if err != nil || n != 1 {
		t.Fatalf("segunda execução: n=%d err=%v", n, err)
	}
	listings, _ := mem.ListListingsBySearch(ctx, s.ID)
	notifications, _ := mem.ListNotifications(ctx, 7, false)
	if len(listings) != 1 || len(notifications) != 1 {
		t.Errorf("anúncios=%d notificações=%d", len(listings), len(notifications))
	}
}

func TestCheckForNewResultsOnlyUnknownURLs(t *testing.T) {
	ctx := context.Background()
	st, searcher, s := setup(t)

	for _, u := range []string{"u1", "u2"} {
		if _, err := st.CreateListing(ctx, s.ID, listing("https://example.com/"+u)); err != nil {
			t.Fatal(err)
		}
	}
	searcher.set(listing("https://example.com/u1"), listing("https://example.com/u2"), listing("https://example.com/u3"))

	m := New(st, searcher, nil, time.Hour)
	n, err := m.CheckForNewResults(ctx, 7)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	notifications, _ := st.ListNotifications(ctx, 7, false)
	if len(notifications) != 1 {
		t.Fatalf("esperava 1 notificação, veio %d", len(notifications))
	}
	listings, _ := st.ListListingsBySearch(ctx, s.ID)
	var u3 models.Listing
	for _, l := range listings {
		if l.ListingURL == "https://example.com/u3" {
			u3 = l
		}
	}
	if u3.ID == 0 || notifications[0].ListingID != u3.ID {
		t.Errorf("notificação deveria referenciar u3: %+v", notifications[0])
	}
}

func TestCheckForNewResultsConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	st, searcher, _ := setup(t)
	searcher.set(listing("https://example.com/a"), listing("https://example.com/b"), listing("https://example.com/c"))
	m := New(st, searcher, nil, time.Hour)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := m.CheckForNewResults(ctx, 7)
			if err != nil {
				t.Error(err)
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 3 {
		t.Errorf("execuções concorrentes criaram %d notificações, esperava 3", total)
	}
	if notifications, _ := st.ListNotifications(ctx, 7, false); len(notifications) != 3 {
		t.Errorf("esperava 3 notificações gravadas, veio %d", len(notifications))
	}
}

func TestCheckForNewResultsSkipsInactiveSearches(t *testing.T) {
	ctx := context.Background()
	st, searcher, s := setup(t)
	if err := st.SetSearchActive(ctx, s.ID, false); err != nil {
		t.Fatal(err)
	}
	searcher.set(listing("https://example.com/a"))

	m := New(st, searcher, nil, time.Hour)
	n, err := m.CheckForNewResults(ctx, 7)
	if err != nil || n != 0 {
		t.Errorf("n=%d err=%v", n, err)
	}
	if searcher.calls != 0 {
		t.Errorf("busca inativa não deveria ser executada (%d chamadas)", searcher.calls)
	}
}

func TestCheckForNewResultsNotifies(t *testing.T) {
	ctx := context.Background()
	st, searcher, _ := setup(t)
	searcher.set(listing("https://example.com/a"))
	notifier := &recordingNotifier{err: errors.New("chat bloqueado")}

	m := New(st, searcher, notifier, time.Hour)
	n, err := m.CheckForNewResults(ctx, 7)
	if err != nil {
		t.Fatalf("falha de entrega não deveria virar erro: %v", err)
	}
	if n != 1 || len(notifier.sent) != 1 {
		t.Errorf("n=%d enviadas=%d", n, len(notifier.sent))
	}
	if notifier.sent[0].ID == 0 {
		t.Error("notificação entregue sem id")
	}
}

func TestCheckAllUsers(t *testing.T) {
	ctx := context.Background()
	st, searcher, _ := setup(t)
	_, _ = st.CreateSearch(ctx, models.SavedSearch{UserID: 8, Query: "sedia", Active: true})
	_, _ = st.CreateSearch(ctx, models.SavedSearch{UserID: 9, Query: "tavolo", Active: false})
	searcher.set(listing("https://example.com/a"))

	New(st, searcher, nil, time.Hour).CheckAllUsers(ctx)

	for user, want := range map[int64]int{7: 1, 8: 1, 9: 0} {
		if got, _ := st.ListNotifications(ctx, user, false); len(got) != want {
			t.Errorf("usuário %d: esperava %d notificações, veio %d", user, want, len(got))
		}
	}
}

func TestStartChecksImmediatelyAndStops(t *testing.T) {
	st, searcher, _ := setup(t)
	searcher.set(listing("https://example.com/a"))
	m := New(st, searcher, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if got, _ := st.ListNotifications(context.Background(), 7, false); len(got) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Start não fez a verificação inicial")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start não retornou após o cancelamento")
	}
}

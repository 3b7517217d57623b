package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/search"
	"bot-anuncios/internal/store"
)

type fakeSearcher struct {
	results []models.Listing
}

func (f fakeSearcher) SearchAll(ctx context.Context, query string, _ *models.Filter) []models.Listing {
	return f.results
}

type fakeChecker struct{ n int }

func (c fakeChecker) CheckForNewResults(ctx context.Context, userID int64) (int, error) {
	return c.n, nil
}

func newHandler(results ...models.Listing) (*Handler, *store.Memory) {
	st := store.NewMemory()
	svc := search.New(st, fakeSearcher{results: results}, fakeChecker{n: 3})
	return NewHandler(svc), st
}

func TestParseSearchArgs(t *testing.T) {
	query, f, err := parseSearchArgs(strings.Fields("lampada vintage max=80,5 min=10 cond=usato cep=20100 ordem=preco-asc"))
	if err != nil {
		t.Fatal(err)
	}
	if query != "lampada vintage" {
		t.Errorf("consulta: %q", query)
	}
	if f == nil || *f.Price.Min != 10 || *f.Price.Max != 80.5 {
		t.Fatalf("preço: %+v", f)
	}
	if f.Condition != "usato" || f.Location.ZipCode != "20100" || f.SortBy != "preco-asc" {
		t.Errorf("filtro: %+v", f)
	}

	query, f, err = parseSearchArgs(strings.Fields("cadeira a=b"))
	if err != nil || f != nil || query != "cadeira a=b" {
		t.Errorf("sem filtros: %q %+v %v", query, f, err)
	}

	_, _, err = parseSearchArgs([]string{"x", "max=barato"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "price.max" {
		t.Errorf("esperava ValidationError em price.max, veio %v", err)
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := escapeHTML("<b>A & B</b>"); got != "&lt;b&gt;A &amp; B&lt;/b&gt;" {
		t.Errorf("escapeHTML: %q", got)
	}
}

func TestCommandOf(t *testing.T) {
	tests := map[string]string{
		"/Buscar lampada":      "/buscar",
		"/buscas@AnunciosBot":  "/buscas",
		"   ":                  "",
		"/help@bot extra args": "/help",
	}
	for in, want := range tests {
		if got := commandOf(in); got != want {
			t.Errorf("commandOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReplySearch(t *testing.T) {
	h, _ := newHandler(
		models.Listing{Title: "Lampada <vintage>", Price: "65€", ListingURL: "https://example.com/b", Marketplace: models.MarketplaceSubito},
	)
	ctx := context.Background()

	got := h.Reply(ctx, 1, "/buscar lampada max=80")
	if !strings.Contains(got, "1 anúncios") || !strings.Contains(got, "Lampada &lt;vintage&gt;") || !strings.Contains(got, "Subito.it") {
		t.Errorf("resposta: %q", got)
	}

	if got := h.Reply(ctx, 1, "/buscar"); !strings.Contains(got, "Formato incorreto") {
		t.Errorf("sem consulta: %q", got)
	}
	if got := h.Reply(ctx, 1, "/buscar lampada min=90 max=10"); !strings.Contains(got, "mínimo maior que o máximo") {
		t.Errorf("faixa invertida: %q", got)
	}
}

func TestReplySavedSearchFlow(t *testing.T) {
	h, st := newHandler()
	ctx := context.Background()

	got := h.Reply(ctx, 42, "/salvar bicicleta max=300 ordem=recentes")
	if !strings.Contains(got, "Busca salva") {
		t.Fatalf("salvar: %q", got)
	}
	searches, _ := st.ListSavedSearches(ctx, 42, true)
	if len(searches) != 1 || searches[0].Filters.SortBy != models.SortNewest {
		t.Fatalf("busca gravada: %+v", searches)
	}
	id := searches[0].ID

	list := h.Reply(ctx, 42, "/buscas")
	if !strings.Contains(list, "bicicleta") || !strings.Contains(list, "ativa") || !strings.Contains(list, "max 300.00") {
		t.Errorf("buscas: %q", list)
	}

	if got := h.Reply(ctx, 7, "/pausar 1"); !strings.Contains(got, "Busca não encontrada") {
		t.Errorf("pausar busca de outro chat: %q", got)
	}
	if got := h.Reply(ctx, 42, "/pausar x"); !strings.Contains(got, "ID inválido") {
		t.Errorf("id inválido: %q", got)
	}
	if got := h.Reply(ctx, 42, "/pausar 1"); !strings.Contains(got, "pausada") {
		t.Errorf("pausar: %q", got)
	}
	if active, _ := st.ListSavedSearches(ctx, 42, true); len(active) != 0 {
		t.Error("busca deveria estar pausada")
	}
	if got := h.Reply(ctx, 42, "/ativar 1"); !strings.Contains(got, "reativada") {
		t.Errorf("ativar: %q", got)
	}

	if got := h.Reply(ctx, 42, "/verificar"); !strings.Contains(got, "3 anúncios novos") {
		t.Errorf("verificar: %q", got)
	}

	l, _ := st.CreateListing(ctx, id, models.Listing{Title: "Bici", Price: "250€", ListingURL: "https://example.com/bici"})
	_, _ = st.CreateNotification(ctx, models.NewListingNotification(42, id, l))

	if got := h.Reply(ctx, 42, "/resultados 1"); !strings.Contains(got, "🆕") || !strings.Contains(got, "Bici") {
		t.Errorf("resultados: %q", got)
	}
	if got := h.Reply(ctx, 7, "/visto 1"); !strings.Contains(got, "Anúncio não encontrado") {
		t.Errorf("visto em anúncio de outro chat: %q", got)
	}
	if got := h.Reply(ctx, 42, "/visto 1"); !strings.Contains(got, "visto") {
		t.Errorf("visto: %q", got)
	}
	if got := h.Reply(ctx, 42, "/resultados 1"); !strings.Contains(got, "👀") {
		t.Errorf("resultados após visto: %q", got)
	}

	if got := h.Reply(ctx, 42, "/notificacoes"); !strings.Contains(got, "1 notificações não lidas") {
		t.Errorf("notificações: %q", got)
	}
	if got := h.Reply(ctx, 42, "/lidas"); !strings.Contains(got, "1 notificações marcadas") {
		t.Errorf("lidas: %q", got)
	}
	if got := h.Reply(ctx, 42, "/notificacoes"); !strings.Contains(got, "Nenhuma notificação") {
		t.Errorf("notificações após lidas: %q", got)
	}
	if got := h.Reply(ctx, 42, "/lida 99"); !strings.Contains(got, "Notificação não encontrada") {
		t.Errorf("lida inexistente: %q", got)
	}
}

func TestReplyUnknownCommand(t *testing.T) {
	h, _ := newHandler()
	if got := h.Reply(context.Background(), 1, "/comprar"); !strings.Contains(got, "não reconhecido") {
		t.Errorf("resposta: %q", got)
	}
	if got := h.Reply(context.Background(), 1, "/help"); got != helpText {
		t.Error("help deveria devolver o texto de ajuda")
	}
}

func TestFormatNotification(t *testing.T) {
	l := models.Listing{ID: 3, Title: "Sedia", Price: "20€", Location: "Milano", ListingURL: "https://example.com/s", Marketplace: models.MarketplaceEbay}
	got := formatNotification(models.NewListingNotification(1, 9, l), l)
	for _, want := range []string{"busca 9", "Sedia", "20€ · eBay", "📍 Milano", "https://example.com/s"} {
		if !strings.Contains(got, want) {
			t.Errorf("faltou %q em %q", want, got)
		}
	}
}

package pipeline

import (
	"testing"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/price"
)

func ptr(v float64) *float64 { return &v }

func lampListings() []models.Listing {
	return []models.Listing{
		{Title: "Lampada Vintage in Ottone", Price: "75€", ListingURL: "https://example.com/a", Marketplace: models.MarketplaceEbay, Condition: "Usato - Buono", Location: "Milano, IT"},
		{Title: "Lampada vintage anni '70", Price: "65€", ListingURL: "https://example.com/b", Marketplace: models.MarketplaceSubito, Condition: "Usato - Buono", Location: "Torino, IT"},
		{Title: "LAMPADA VINTAGE regolabile", Price: "89.99€", ListingURL: "https://example.com/c", Marketplace: models.MarketplaceAmazon, Condition: "Nuovo", Location: "Deposito Amazon"},
	}
}

func TestApplyPriceMaxAndAscending(t *testing.T) {
	f := &models.Filter{Price: &models.PriceRange{Max: ptr(80)}, SortBy: models.SortPriceAsc}

	got := Apply(lampListings(), "lampada vintage", f)
	if len(got) != 2 {
		t.Fatalf("esperava 2 anúncios, veio %d", len(got))
	}
	if got[0].ListingURL != "https://example.com/b" || got[1].ListingURL != "https://example.com/a" {
		t.Errorf("ordem inesperada: %s, %s", got[0].ListingURL, got[1].ListingURL)
	}
}

func TestPriceBoundsAreRespected(t *testing.T) {
	f := &models.Filter{Price: &models.PriceRange{Min: ptr(70), Max: ptr(90)}}
	for _, l := range Filter(lampListings(), "", f) {
		v, ok := price.Parse(l.Price)
		if !ok {
			t.Fatalf("preço ilegível passou pelo filtro: %q", l.Price)
		}
		f64, _ := v.Float64()
		if f64 < 70 || f64 > 90 {
			t.Errorf("preço %q fora da faixa", l.Price)
		}
	}
}

func TestUnparsablePriceExcludedOnlyWithPriceFilter(t *testing.T) {
	listings := []models.Listing{
		{Title: "Lampada", Price: "Prezzo su richiesta", ListingURL: "https://example.com/x"},
	}

	if got := Filter(listings, "lampada", nil); len(got) != 1 {
		t.Errorf("sem filtro de preço o anúncio deveria passar, veio %d", len(got))
	}
	if got := Filter(listings, "lampada", &models.Filter{Condition: ""}); len(got) != 1 {
		t.Errorf("filtro sem preço não deveria excluir, veio %d", len(got))
	}
	f := &models.Filter{Price: &models.PriceRange{Min: ptr(1)}}
	if got := Filter(listings, "lampada", f); len(got) != 0 {
		t.Errorf("com filtro de preço o anúncio deveria sair, veio %d", len(got))
	}
}

func TestConditionAndZipCode(t *testing.T) {
	f := &models.Filter{Condition: "usato"}
	if got := Filter(lampListings(), "", f); len(got) != 2 {
		t.Errorf("condição: esperava 2, veio %d", len(got))
	}

	f = &models.Filter{Location: &models.LocationFilter{ZipCode: "torino"}}
	got := Filter(lampListings(), "", f)
	if len(got) != 1 || got[0].ListingURL != "https://example.com/b" {
		t.Errorf("localização: resultado inesperado %+v", got)
	}

	f = &models.Filter{Location: &models.LocationFilter{Distance: ptr(10)}}
	if got := Filter(lampListings(), "", f); len(got) != 3 {
		t.Errorf("distância não deveria filtrar, veio %d", len(got))
	}
}

func TestSortMonotonic(t *testing.T) {
	listings := []models.Listing{
		{Title: "a", Price: "10€", ListingURL: "1"},
		{Title: "b", Price: "1.200,00 €", ListingURL: "2"},
		{Title: "c", Price: "5,50€", ListingURL: "3"},
		{Title: "d", Price: "10€", ListingURL: "4"},
		{Title: "e", Price: "99.9€", ListingURL: "5"},
	}

	asc := Sort(listings, models.SortPriceAsc)
	for i := 1; i < len(asc); i++ {
		prev, _ := price.Parse(asc[i-1].Price)
		cur, _ := price.Parse(asc[i].Price)
		if cur.LessThan(prev) {
			t.Errorf("price-asc não é crescente em %d: %s > %s", i, prev, cur)
		}
	}
	// empate mantém a ordem anterior
	if asc[1].ListingURL != "1" || asc[2].ListingURL != "4" {
		t.Errorf("ordenação não estável: %s, %s", asc[1].ListingURL, asc[2].ListingURL)
	}

	desc := Sort(listings, models.SortPriceDesc)
	for i := 1; i < len(desc); i++ {
		prev, _ := price.Parse(desc[i-1].Price)
		cur, _ := price.Parse(desc[i].Price)
		if cur.GreaterThan(prev) {
			t.Errorf("price-desc não é decrescente em %d: %s < %s", i, prev, cur)
		}
	}

	if listings[0].ListingURL != "1" || listings[1].ListingURL != "2" {
		t.Error("Sort alterou a lista original")
	}
}

func TestSortNewestPutsUndatedLast(t *testing.T) {
	now := time.Now()
	listings := []models.Listing{
		{ListingURL: "undated-1"},
		{ListingURL: "old", PostedAt: now.Add(-48 * time.Hour)},
		{ListingURL: "undated-2"},
		{ListingURL: "new", PostedAt: now.Add(-time.Hour)},
	}

	got := Sort(listings, models.SortNewest)
	want := []string{"new", "old", "undated-1", "undated-2"}
	for i, url := range want {
		if got[i].ListingURL != url {
			t.Errorf("posição %d: got %s, want %s", i, got[i].ListingURL, url)
		}
	}
}

func TestSortIdentityKeys(t *testing.T) {
	listings := lampListings()
	for _, key := range []models.SortKey{models.SortBestMatch, models.SortEndingSoon, ""} {
		got := Sort(listings, key)
		for i := range listings {
			if got[i].ListingURL != listings[i].ListingURL {
				t.Errorf("%q alterou a ordem na posição %d", key, i)
			}
		}
	}
}

func TestDedupe(t *testing.T) {
	listings := []models.Listing{
		{Title: "A", Price: "1€", ListingURL: "https://example.com/1"},
		{Title: "B", Price: "2€", ListingURL: "https://example.com/1"},
		{Title: "", Price: "3€", ListingURL: "https://example.com/2"},
		{Title: "D", Price: "4€", ListingURL: ""},
		{Title: "E", Price: "5€", ListingURL: "https://example.com/3"},
	}

	got := Dedupe(listings)
	if len(got) != 2 {
		t.Fatalf("esperava 2 anúncios, veio %d", len(got))
	}
	if got[0].Title != "A" || got[1].Title != "E" {
		t.Errorf("resultado inesperado: %+v", got)
	}
}

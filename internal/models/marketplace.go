package models

import "strings"

// Marketplace identifica um marketplace conhecido
type Marketplace string

const (
	MarketplaceEbay         Marketplace = "ebay"
	MarketplaceAmazon       Marketplace = "amazon"
	MarketplaceFacebook     Marketplace = "facebook"
	MarketplaceCraigslist   Marketplace = "craigslist"
	MarketplaceEtsy         Marketplace = "etsy"
	MarketplaceSubito       Marketplace = "subito"
	MarketplaceKijiji       Marketplace = "kijiji"
	MarketplaceBakeca       Marketplace = "bakeca"
	MarketplaceIdealista    Marketplace = "idealista"
	MarketplaceImmobiliare  Marketplace = "immobiliare"
	MarketplaceAutoscout24  Marketplace = "autoscout24"
	MarketplaceVinted       Marketplace = "vinted"
	MarketplaceRebelle      Marketplace = "rebelle"
	MarketplaceLeboncoin    Marketplace = "leboncoin"
	MarketplaceWallapop     Marketplace = "wallapop"
	MarketplaceAllegro      Marketplace = "allegro"
	MarketplaceMercadoLivre Marketplace = "mercadolivre"
)

// Marketplaces lista todos os marketplaces conhecidos, na ordem usada pelo agregador
var Marketplaces = []Marketplace{
	MarketplaceEbay,
	MarketplaceAmazon,
	MarketplaceFacebook,
	MarketplaceCraigslist,
	MarketplaceEtsy,
	MarketplaceSubito,
	MarketplaceKijiji,
	MarketplaceBakeca,
	MarketplaceIdealista,
	MarketplaceImmobiliare,
	MarketplaceAutoscout24,
	MarketplaceVinted,
	MarketplaceRebelle,
	MarketplaceLeboncoin,
	MarketplaceWallapop,
	MarketplaceAllegro,
	MarketplaceMercadoLivre,
}

// ParseMarketplace converte um identificador textual em Marketplace
func ParseMarketplace(s string) (Marketplace, bool) {
	m := Marketplace(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Marketplaces {
		if known == m {
			return m, true
		}
	}
	return "", false
}

var displayNames = map[Marketplace]string{
	MarketplaceEbay:         "eBay",
	MarketplaceAmazon:       "Amazon",
	MarketplaceFacebook:     "Facebook Marketplace",
	MarketplaceCraigslist:   "Craigslist",
	MarketplaceEtsy:         "Etsy",
	MarketplaceSubito:       "Subito.it",
	MarketplaceKijiji:       "Kijiji",
	MarketplaceBakeca:       "Bakeca",
	MarketplaceIdealista:    "Idealista",
	MarketplaceImmobiliare:  "Immobiliare.it",
	MarketplaceAutoscout24:  "AutoScout24",
	MarketplaceVinted:       "Vinted",
	MarketplaceRebelle:      "Rebelle",
	MarketplaceLeboncoin:    "Leboncoin",
	MarketplaceWallapop:     "Wallapop",
	MarketplaceAllegro:      "Allegro",
	MarketplaceMercadoLivre: "Mercado Livre",
}

// DisplayName retorna o nome do marketplace para exibição
func DisplayName(m Marketplace) string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}

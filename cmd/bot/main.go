package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bot-anuncios/config"
	"bot-anuncios/internal/aggregator"
	"bot-anuncios/internal/bot"
	"bot-anuncios/internal/database"
	"bot-anuncios/internal/fixtures"
	"bot-anuncios/internal/logging"
	"bot-anuncios/internal/models"
	"bot-anuncios/internal/monitor"
	"bot-anuncios/internal/scraper"
	"bot-anuncios/internal/search"
	"bot-anuncios/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type flags struct {
	once     bool
	query    string
	minPrice float64
	maxPrice float64
	sortBy   string
	envFile  string
}

func parseFlags() flags {
	var f flags
	pflag.BoolVar(&f.once, "once", false, "executa uma verificação das buscas salvas e sai")
	pflag.StringVar(&f.query, "buscar", "", "faz uma busca avulsa, imprime os resultados e sai")
	pflag.Float64Var(&f.minPrice, "min", 0, "preço mínimo da busca avulsa")
	pflag.Float64Var(&f.maxPrice, "max", 0, "preço máximo da busca avulsa")
	pflag.StringVar(&f.sortBy, "ordem", "", "ordenação da busca avulsa (best-match, preco-asc, preco-desc, recentes, ending-soon)")
	pflag.StringVar(&f.envFile, "env", ".env", "arquivo de variáveis de ambiente")
	pflag.Parse()
	return f
}

func main() {
	if err := run(parseFlags()); err != nil {
		slog.Error("erro fatal", "error", err)
		os.Exit(1)
	}
}

func run(fl flags) error {
	// Carregar variáveis de ambiente
	envErr := godotenv.Load(fl.envFile)

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("erro ao carregar configurações: %w", err)
	}

	logging.Init(cfg.LogLevel)
	if envErr != nil {
		slog.Info("arquivo .env não encontrado, usando variáveis de ambiente do sistema", "file", fl.envFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializar banco de dados
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("erro ao inicializar banco de dados: %w", err)
	}
	defer st.Close()

	// Inicializar fontes
	browser := scraper.NewBrowserPool(cfg.ChromeBin, cfg.BrowserMaxSessions)
	defer browser.Close()

	registry := scraper.NewDefaultRegistry(scraper.Options{
		Timeout: cfg.SourceTimeout,
		Ebay:    scraper.Credentials(cfg.Ebay),
		Amazon:  scraper.Credentials(cfg.Amazon),
	}, browser)
	slog.Info("fontes registradas", "marketplaces", registry.Marketplaces(), "browser", browser.Available())

	agg := aggregator.New(registry, fixtures.Default(), cfg.SourceTimeout)

	if fl.query != "" {
		return adHocSearch(ctx, search.New(st, agg, nil), fl)
	}

	// Telegram é opcional: sem token o monitor roda e as notificações ficam só no banco
	var (
		api      *tgbotapi.BotAPI
		notifier monitor.Notifier
	)
	if cfg.TelegramBotToken != "" {
		api, err = bot.Init(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("erro ao inicializar bot do Telegram: %w", err)
		}
		notifier = bot.NewNotifier(api)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN não configurado, comandos e envio de notificações desativados")
	}

	// Criar gerenciador de monitoramento
	mon := monitor.New(st, agg, notifier, cfg.CheckInterval)

	if fl.once {
		mon.CheckAllUsers(ctx)
		return nil
	}

	go mon.Start(ctx)

	if api != nil {
		svc := search.New(st, agg, mon)
		go bot.SetupCommands(ctx, api, bot.NewHandler(svc), cfg.TelegramChatID)
	}

	// Aguardar sinal de interrupção
	<-ctx.Done()
	slog.Info("encerrando bot")
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "memory":
		return store.NewMemory(), nil
	case database.DriverPostgres:
		return database.New(database.DriverPostgres, cfg.DatabaseURL)
	default:
		return database.New(database.DriverSQLite, cfg.DatabasePath)
	}
}

func adHocSearch(ctx context.Context, svc *search.Service, fl flags) error {
	var f *models.Filter
	if pflag.CommandLine.Changed("min") || pflag.CommandLine.Changed("max") || fl.sortBy != "" {
		f = &models.Filter{SortBy: models.SortKey(fl.sortBy)}
		if pflag.CommandLine.Changed("min") || pflag.CommandLine.Changed("max") {
			f.Price = &models.PriceRange{}
			if pflag.CommandLine.Changed("min") {
				f.Price.Min = &fl.minPrice
			}
			if pflag.CommandLine.Changed("max") {
				f.Price.Max = &fl.maxPrice
			}
		}
	}

	listings, err := svc.Search(ctx, fl.query, f)
	if err != nil {
		return err
	}

	fmt.Printf("%d anúncios para %q\n\n", len(listings), fl.query)
	for _, l := range listings {
		fmt.Printf("%-10s %-12s %s\n", l.Price, models.DisplayName(l.Marketplace), l.Title)
		fmt.Printf("%23s %s\n", "", l.ListingURL)
	}
	return nil
}

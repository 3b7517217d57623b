package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/search"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxResults limita quantos anúncios cabem numa resposta
const maxResults = 10

// escapeHTML escapa caracteres especiais do HTML
func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// Handler traduz comandos de texto em chamadas ao serviço de buscas
type Handler struct {
	svc *search.Service
}

// NewHandler cria o handler de comandos
func NewHandler(svc *search.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupCommands recebe as mensagens do bot até ctx ser cancelado.
// authorizedChatID diferente de zero restringe os comandos a esse chat.
func SetupCommands(ctx context.Context, bot *tgbotapi.BotAPI, h *Handler, authorizedChatID int64) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		chatID := update.Message.Chat.ID
		command := commandOf(update.Message.Text)

		// Comandos públicos (não precisam de autorização)
		isPublicCommand := command == "/start" || command == "/help"

		if !isPublicCommand && authorizedChatID != 0 && chatID != authorizedChatID {
			send(bot, chatID, "Você não está autorizado a usar este bot.")
			continue
		}

		send(bot, chatID, h.Reply(ctx, chatID, update.Message.Text))
	}
}

// send envia em HTML e, se falhar, sem formatação
func send(bot *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		slog.Warn("erro ao enviar mensagem com HTML", "chat", chatID, "error", err)
		msg.ParseMode = ""
		if _, err2 := bot.Send(msg); err2 != nil {
			slog.Error("erro ao enviar mensagem sem formatação", "chat", chatID, "error", err2)
		}
	}
}

// commandOf extrai o comando em minúsculas, sem o @botname
func commandOf(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}
	command := strings.ToLower(parts[0])
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}
	return command
}

// Reply executa o comando e devolve a resposta em HTML do Telegram
func (h *Handler) Reply(ctx context.Context, chatID int64, text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}

	switch commandOf(text) {
	case "/start", "/help":
		return helpText
	case "/buscar":
		return h.handleSearch(ctx, parts[1:])
	case "/salvar":
		return h.handleSave(ctx, chatID, parts[1:])
	case "/buscas":
		return h.handleListSearches(ctx, chatID)
	case "/pausar":
		return h.handleSetActive(ctx, chatID, parts, false)
	case "/ativar":
		return h.handleSetActive(ctx, chatID, parts, true)
	case "/resultados":
		return h.handleResults(ctx, chatID, parts)
	case "/visto":
		return h.handleSeen(ctx, chatID, parts)
	case "/verificar":
		return h.handleCheck(ctx, chatID)
	case "/notificacoes":
		return h.handleNotifications(ctx, chatID)
	case "/lida":
		return h.handleMarkRead(ctx, chatID, parts)
	case "/lidas":
		return h.handleMarkAllRead(ctx, chatID)
	default:
		return "Comando não reconhecido. Use /help para ver os comandos disponíveis."
	}
}

const helpText = `🤖 <b>Bot de Anúncios</b>

<b>Comandos disponíveis:</b>

<b>/buscar</b> &lt;consulta&gt; [filtros] - Buscar agora em todos os marketplaces
Exemplo: /buscar lampada vintage max=80 ordem=preco-asc

<b>/salvar</b> &lt;consulta&gt; [filtros] - Salvar busca e receber anúncios novos
Exemplo: /salvar bicicleta min=100 max=300 cond=usato

Filtros: min=, max=, cond=, cep=, dist=, ordem= (best-match, preco-asc, preco-desc, recentes, ending-soon)

<b>/buscas</b> - Listar suas buscas salvas
<b>/pausar &lt;id&gt;</b> - Pausar uma busca
<b>/ativar &lt;id&gt;</b> - Reativar uma busca
<b>/resultados &lt;id&gt;</b> - Anúncios registrados de uma busca
<b>/visto &lt;id&gt;</b> - Marcar anúncio como visto
<b>/verificar</b> - Verificar suas buscas agora
<b>/notificacoes</b> - Notificações não lidas
<b>/lida &lt;id&gt;</b> - Marcar uma notificação como lida
<b>/lidas</b> - Marcar todas como lidas
<b>/help</b> - Mostrar esta mensagem de ajuda
`

// errorText converte os erros do serviço em mensagem para o usuário
func errorText(err error, notFound string) string {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return "❌ " + escapeHTML(verr.Error())
	case errors.Is(err, models.ErrNotFound):
		return "❌ " + notFound
	default:
		slog.Error("erro ao executar comando", "error", err)
		return "❌ Erro interno. Tente novamente mais tarde."
	}
}

func formatListing(l models.Listing) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s</b>\n", escapeHTML(l.Title)))
	b.WriteString(fmt.Sprintf("💰 %s · %s", escapeHTML(l.Price), escapeHTML(models.DisplayName(l.Marketplace))))
	if l.Condition != "" {
		b.WriteString(" · " + escapeHTML(l.Condition))
	}
	b.WriteString("\n")
	if l.Location != "" {
		b.WriteString(fmt.Sprintf("📍 %s\n", escapeHTML(l.Location)))
	}
	b.WriteString(fmt.Sprintf("🔗 %s\n", escapeHTML(l.ListingURL)))
	return b.String()
}

func formatNotification(n models.Notification, l models.Listing) string {
	return fmt.Sprintf("🔔 <b>Novo anúncio</b> (busca %d)\n\n%s", n.SearchID, formatListing(l))
}

func (h *Handler) handleSearch(ctx context.Context, args []string) string {
	query, f, err := parseSearchArgs(args)
	if err != nil {
		return errorText(err, "")
	}

	listings, err := h.svc.Search(ctx, query, f)
	if err != nil {
		if query == "" {
			return "❌ Formato incorreto.\n\nUso: /buscar &lt;consulta&gt; [filtros]"
		}
		return errorText(err, "")
	}
	if len(listings) == 0 {
		return fmt.Sprintf("🔍 Nenhum anúncio encontrado para \"%s\".", escapeHTML(query))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>%d anúncios para \"%s\"</b>\n\n", len(listings), escapeHTML(query)))
	for i, l := range listings {
		if i == maxResults {
			b.WriteString(fmt.Sprintf("... e mais %d", len(listings)-maxResults))
			break
		}
		b.WriteString(formatListing(l) + "\n")
	}
	return b.String()
}

func (h *Handler) handleSave(ctx context.Context, chatID int64, args []string) string {
	query, f, err := parseSearchArgs(args)
	if err != nil {
		return errorText(err, "")
	}

	saved, err := h.svc.CreateSearch(ctx, chatID, query, f)
	if err != nil {
		if query == "" {
			return "❌ Formato incorreto.\n\nUso: /salvar &lt;consulta&gt; [filtros]"
		}
		return errorText(err, "")
	}
	return fmt.Sprintf("✅ Busca salva com sucesso!\n\n🆔 ID: %d\n🔍 %s\n\nVocê será avisado quando aparecerem anúncios novos.", saved.ID, escapeHTML(saved.Query))
}

func describeFilter(f *models.Filter) string {
	if f == nil {
		return ""
	}
	var parts []string
	if f.Price != nil {
		if f.Price.Min != nil {
			parts = append(parts, fmt.Sprintf("min %.2f", *f.Price.Min))
		}
		if f.Price.Max != nil {
			parts = append(parts, fmt.Sprintf("max %.2f", *f.Price.Max))
		}
	}
	if f.Condition != "" {
		parts = append(parts, "cond "+f.Condition)
	}
	if f.Location != nil && f.Location.ZipCode != "" {
		parts = append(parts, "cep "+f.Location.ZipCode)
	}
	if f.SortBy != "" && f.SortBy != models.SortBestMatch {
		parts = append(parts, "ordem "+string(f.SortBy))
	}
	return strings.Join(parts, ", ")
}

func (h *Handler) handleListSearches(ctx context.Context, chatID int64) string {
	searches, err := h.svc.ListSearches(ctx, chatID)
	if err != nil {
		return errorText(err, "")
	}
	if len(searches) == 0 {
		return "📋 Nenhuma busca salva. Use /salvar para criar uma."
	}

	var b strings.Builder
	b.WriteString("📋 <b>Suas buscas:</b>\n\n")
	for _, s := range searches {
		status := "✅ ativa"
		if !s.Active {
			status = "⏸ pausada"
		}
		b.WriteString(fmt.Sprintf("🆔 <b>%d</b> %s (%s)\n", s.ID, escapeHTML(s.Query), status))
		if desc := describeFilter(s.Filters); desc != "" {
			b.WriteString(fmt.Sprintf("   🎯 %s\n", escapeHTML(desc)))
		}
	}
	return b.String()
}

func (h *Handler) handleSetActive(ctx context.Context, chatID int64, parts []string, active bool) string {
	id, ok := parseID(parts)
	if !ok {
		return fmt.Sprintf("❌ ID inválido.\n\nUso: %s &lt;id&gt;", parts[0])
	}

	saved, err := h.svc.SetActive(ctx, chatID, id, active)
	if err != nil {
		return errorText(err, "Busca não encontrada.")
	}
	if active {
		return fmt.Sprintf("▶️ Busca reativada: %s", escapeHTML(saved.Query))
	}
	return fmt.Sprintf("⏸ Busca pausada: %s", escapeHTML(saved.Query))
}

func (h *Handler) handleResults(ctx context.Context, chatID int64, parts []string) string {
	id, ok := parseID(parts)
	if !ok {
		return "❌ ID inválido.\n\nUso: /resultados &lt;id&gt;"
	}

	listings, err := h.svc.Results(ctx, chatID, id)
	if err != nil {
		return errorText(err, "Busca não encontrada.")
	}
	if len(listings) == 0 {
		return "📭 Nenhum anúncio registrado para esta busca ainda."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📬 <b>%d anúncios registrados</b>\n\n", len(listings)))
	// mais recentes primeiro
	for i := len(listings) - 1; i >= 0 && len(listings)-i <= maxResults; i-- {
		l := listings[i]
		mark := "🆕"
		if l.Seen {
			mark = "👀"
		}
		b.WriteString(fmt.Sprintf("%s <b>#%d</b> ", mark, l.ID) + formatListing(l) + "\n")
	}
	return b.String()
}

func (h *Handler) handleSeen(ctx context.Context, chatID int64, parts []string) string {
	id, ok := parseID(parts)
	if !ok {
		return "❌ ID inválido.\n\nUso: /visto &lt;id&gt;"
	}
	if err := h.svc.MarkSeen(ctx, chatID, id); err != nil {
		return errorText(err, "Anúncio não encontrado.")
	}
	return "👀 Anúncio marcado como visto."
}

func (h *Handler) handleCheck(ctx context.Context, chatID int64) string {
	n, err := h.svc.CheckNow(ctx, chatID)
	if err != nil {
		return errorText(err, "")
	}
	if n == 0 {
		return "🔍 Nenhum anúncio novo nas suas buscas ativas."
	}
	return fmt.Sprintf("🔔 %d anúncios novos encontrados. Use /notificacoes para ver.", n)
}

func (h *Handler) handleNotifications(ctx context.Context, chatID int64) string {
	unread, err := h.svc.Notifications(ctx, chatID, true)
	if err != nil {
		return errorText(err, "")
	}
	if len(unread) == 0 {
		return "📭 Nenhuma notificação não lida."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%d notificações não lidas</b>\n\n", len(unread)))
	for i, n := range unread {
		if i == maxResults {
			b.WriteString(fmt.Sprintf("... e mais %d\n", len(unread)-maxResults))
			break
		}
		b.WriteString(fmt.Sprintf("🆔 <b>%d</b> %s\n", n.ID, escapeHTML(n.Message)))
	}
	b.WriteString("\nUse /lidas para marcar todas como lidas.")
	return b.String()
}

func (h *Handler) handleMarkRead(ctx context.Context, chatID int64, parts []string) string {
	id, ok := parseID(parts)
	if !ok {
		return "❌ ID inválido.\n\nUso: /lida &lt;id&gt;"
	}
	if err := h.svc.MarkRead(ctx, chatID, id); err != nil {
		return errorText(err, "Notificação não encontrada.")
	}
	return "✅ Notificação marcada como lida."
}

func (h *Handler) handleMarkAllRead(ctx context.Context, chatID int64) string {
	n, err := h.svc.MarkAllRead(ctx, chatID)
	if err != nil {
		return errorText(err, "")
	}
	return fmt.Sprintf("✅ %d notificações marcadas como lidas.", n)
}

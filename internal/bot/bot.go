package bot

import (
	"context"
	"fmt"
	"log/slog"

	"bot-anuncios/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Init inicializa o bot do Telegram
func Init(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado. Verifique o arquivo .env")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, fmt.Errorf("token do Telegram inválido ou expirado. Verifique o TELEGRAM_BOT_TOKEN no arquivo .env. Para obter um token, fale com @BotFather no Telegram")
		}
		return nil, fmt.Errorf("erro ao conectar com Telegram: %w", err)
	}

	bot.Debug = false
	slog.Info("bot autorizado", "username", bot.Self.UserName)
	return bot, nil
}

// Notifier envia as notificações de anúncio novo para o chat do dono da busca.
// O id do usuário é o id do chat.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// NewNotifier cria o notificador sobre um bot já autorizado
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) Notify(ctx context.Context, notification models.Notification, l models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(notification.UserID, formatNotification(notification, l))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = l.ImageURL == ""
	if _, err := n.api.Send(msg); err != nil {
		// tentar sem formatação
		msg.ParseMode = ""
		msg.Text = notification.Message + "\n" + l.ListingURL
		if _, err2 := n.api.Send(msg); err2 != nil {
			return fmt.Errorf("erro ao enviar notificação %d: %w", notification.ID, err)
		}
	}
	return nil
}

package notify

import (
	"context"
	"log/slog"

	telegramrepo "github.com/kerpat/serverdogovor/repository/telegram"
)

// Notifier delivers chat messages at most once, best effort. Every failure is
// logged and swallowed; callers never see an error.
type Notifier struct {
	tg  telegramrepo.Repo
	log *slog.Logger
}

func New(tg telegramrepo.Repo, log *slog.Logger) *Notifier {
	return &Notifier{tg: tg, log: log}
}

func (n *Notifier) Notify(ctx context.Context, chatID, text, actionURL string) {
	if chatID == "" {
		n.log.Warn("notify skipped: client has no chat id")
		return
	}
	msg := telegramrepo.Message{
		ChatID: chatID,
		Text:   text,
	}
	if actionURL != "" {
		msg.ButtonText = "Открыть"
		msg.ButtonURL = actionURL
	}
	if err := n.tg.SendMessage(ctx, msg); err != nil {
		n.log.Warn("notify failed", "chat_id", chatID, "err", err)
	}
}

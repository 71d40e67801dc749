package telegramrepo

import "context"

type Message struct {
	ChatID     string
	Text       string
	ButtonText string
	ButtonURL  string
}

type Repo interface {
	SendMessage(ctx context.Context, msg Message) error
}

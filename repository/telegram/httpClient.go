package telegramrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kerpat/serverdogovor/util/httpx"
)

type httpRepo struct {
	token  string
	client *http.Client
}

func NewHTTP(token string) Repo {
	return &httpRepo{token: token, client: httpx.Client()}
}

func (r *httpRepo) SendMessage(ctx context.Context, msg Message) error {
	if r.token == "" {
		return errors.New("telegram: bot token is not configured")
	}
	if msg.ChatID == "" {
		return errors.New("telegram: empty chat id")
	}

	payload := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Text,
	}
	if msg.ButtonURL != "" {
		payload["reply_markup"] = map[string]any{
			"inline_keyboard": [][]map[string]string{{{
				"text": msg.ButtonText,
				"url":  msg.ButtonURL,
			}}},
		}
	}
	b, _ := json.Marshal(payload)

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", r.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage failed: %s", resp.Status)
	}
	return nil
}

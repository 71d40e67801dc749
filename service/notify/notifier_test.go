package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	telegramrepo "github.com/kerpat/serverdogovor/repository/telegram"
)

type fakeSender struct {
	fail  bool
	calls []telegramrepo.Message
}

func (f *fakeSender) SendMessage(ctx context.Context, msg telegramrepo.Message) error {
	f.calls = append(f.calls, msg)
	if f.fail {
		return errors.New("bad gateway")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify_SendsWithButton(t *testing.T) {
	s := &fakeSender{}
	n := New(s, testLogger())

	n.Notify(context.Background(), "42", "Подпишите акт", "https://app.example.com/?rental_id=r1")

	require.Len(t, s.calls, 1)
	require.Equal(t, "42", s.calls[0].ChatID)
	require.Equal(t, "https://app.example.com/?rental_id=r1", s.calls[0].ButtonURL)
	require.NotEmpty(t, s.calls[0].ButtonText)
}

func TestNotify_SkipsEmptyChatID(t *testing.T) {
	s := &fakeSender{}
	n := New(s, testLogger())

	n.Notify(context.Background(), "", "text", "")
	require.Empty(t, s.calls)
}

func TestNotify_TransportFailureIsSwallowed(t *testing.T) {
	s := &fakeSender{fail: true}
	n := New(s, testLogger())

	require.NotPanics(t, func() {
		n.Notify(context.Background(), "42", "text", "")
	})
	require.Len(t, s.calls, 1)
}

package delivery

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestEmailDeliverer(t *testing.T) {
	outbox := &Outbox{}
	d := &EmailDeliverer{
		Mailer:     outbox,
		From:       "nopass@example.com",
		SiteName:   "Example",
		BaseURL:    "https://login.example.com/",
		Expiration: 5 * time.Minute,
	}
	user := domain.User{ID: "01HV", Username: "alice", Email: "foo@bar.com"}
	code := domain.LoginCode{UserID: user.ID, Code: "abc123"}

	t.Run("uses configured base url", func(t *testing.T) {
		require.NoError(t, d.Deliver(context.Background(), user, code))

		msgs := outbox.Messages()
		require.Len(t, msgs, 1)
		require.Equal(t, "foo@bar.com", msgs[0].To)
		require.Equal(t, DefaultSubject, msgs[0].Subject)
		require.Contains(t, msgs[0].Body, "https://login.example.com/accounts/login/code/?user=01HV&code=abc123")
		require.Contains(t, msgs[0].Body, "expires in 5m0s")
	})

	t.Run("request base url wins", func(t *testing.T) {
		ctx := WithBaseURL(context.Background(), "http://testserver")
		require.NoError(t, d.Deliver(ctx, user, code))

		msgs := outbox.Messages()
		require.Contains(t, msgs[len(msgs)-1].Body, "http://testserver/accounts/login/code/?user=01HV&code=abc123")
	})

	t.Run("user without email", func(t *testing.T) {
		err := d.Deliver(context.Background(), domain.User{ID: "x"}, code)
		require.Error(t, err)
	})
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := string(buildMessage(Message{
		From:    "a@example.com",
		To:      "b@example.com",
		Subject: "hi",
		Body:    "body",
	}, now))

	require.True(t, strings.HasPrefix(raw, "From: a@example.com\r\nTo: b@example.com\r\nSubject: hi\r\n"))
	require.Contains(t, raw, "Date: Fri, 01 Mar 2024 12:00:00 +0000\r\n")
	require.True(t, strings.HasSuffix(raw, "\r\n\r\nbody"))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := &LogMailer{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, m.Send(context.Background(), Message{To: "b@example.com", Subject: "hi", Body: "link"}))
	require.Contains(t, buf.String(), `"to":"b@example.com"`)
	require.Contains(t, buf.String(), `"body":"link"`)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &SMTPMailer{Addr: "127.0.0.1:1"}
	require.ErrorIs(t, m.Send(ctx, Message{}), context.Canceled)
}

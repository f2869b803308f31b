package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to, subject, text, html})
	return nil
}

func TestWelcomeMailer_SendWelcome(t *testing.T) {
	sender := &fakeSender{}
	m := NewWelcomeMailer(sender, "Acme", "https://acme.test/support")

	err := m.SendWelcome(context.Background(), "ana@x.com", "Ana Diaz", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@x.com", sender.sent[0].to)
	assert.Equal(t, "Welcome to Acme, Ana Diaz", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].html, "https://acme.test/support")
}

func TestWelcomeMailer_SendError(t *testing.T) {
	boom := errors.New("mailgun down")
	m := NewWelcomeMailer(&fakeSender{err: boom}, "Acme", "")

	err := m.SendWelcome(context.Background(), "ana@x.com", "Ana Diaz", time.Now())

	assert.ErrorIs(t, err, boom)
}

package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/oksasatya/user-service/pkg/mailer/templates"
)

// Sender delivers one rendered message. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// WelcomeMailer renders and sends the user welcome email.
type WelcomeMailer struct {
	Sender      Sender
	CompanyName string
	SupportURL  string
}

func NewWelcomeMailer(sender Sender, companyName, supportURL string) *WelcomeMailer {
	return &WelcomeMailer{Sender: sender, CompanyName: companyName, SupportURL: supportURL}
}

func (w *WelcomeMailer) SendWelcome(ctx context.Context, to, fullName string, registeredAt time.Time) error {
	data := templates.NewWelcomeData(fullName, to, w.CompanyName,
		templates.WithTime(registeredAt),
		templates.WithSupportURL(w.SupportURL),
	)
	msg, err := templates.Render(templates.UserWelcome, data)
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	return w.Sender.Send(ctx, to, msg.Subject, msg.Text, msg.HTML)
}

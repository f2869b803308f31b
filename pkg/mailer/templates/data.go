package templates

import (
	"strings"
	"time"
)

// WelcomeData is the template model for UserWelcome.
type WelcomeData struct {
	Name         string
	Email        string
	CompanyName  string
	SupportURL   string
	RegisteredAt time.Time
	Time         string
}

type Option func(*WelcomeData)

func WithTime(t time.Time) Option {
	return func(d *WelcomeData) {
		utc := t.UTC()
		d.RegisteredAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

func WithSupportURL(url string) Option {
	return func(d *WelcomeData) { d.SupportURL = strings.TrimSpace(url) }
}

// NewWelcomeData builds template data for a newly registered user.
func NewWelcomeData(name, email, companyName string, opts ...Option) WelcomeData {
	d := WelcomeData{
		Name:        strings.TrimSpace(name),
		Email:       email,
		CompanyName: companyName,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

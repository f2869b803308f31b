package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmpl "html/template"
	"strings"
	"sync"
	texttpl "text/template"
)

//go:embed *.tmpl
var files embed.FS

// UserWelcome is sent once to every newly registered user.
const UserWelcome = "user_welcome"

var ErrUnknownTemplate = errors.New("unknown email template")

// Message is a rendered email: a one-line subject plus text and HTML bodies.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Each email <name> is three embedded files: <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl. Subject and text share one text/template set; HTML bodies are
// parsed with html/template so data is escaped.
var funcs = map[string]any{
	// {{ .Name | default "there" }}
	"default": func(fallback, value string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	},
}

type sets struct {
	text *texttpl.Template
	html *htmpl.Template
}

var load = sync.OnceValues(func() (*sets, error) {
	text, err := texttpl.New("emails").Funcs(funcs).ParseFS(files, "*.subject.tmpl", "*.text.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmpl.New("emails").Funcs(funcs).ParseFS(files, "*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &sets{text: text, html: html}, nil
})

func execText(t *texttpl.Template, name string, data any) (string, error) {
	tpl := t.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %s: %w", name, err)
	}
	return buf.String(), nil
}

// Render executes the subject, text and HTML templates of email name against data.
func Render(name string, data any) (Message, error) {
	s, err := load()
	if err != nil {
		return Message{}, err
	}
	subject, err := execText(s.text, name+".subject.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	text, err := execText(s.text, name+".text.tmpl", data)
	if err != nil {
		return Message{}, err
	}

	tpl := s.html.Lookup(name + ".html.tmpl")
	if tpl == nil {
		return Message{}, fmt.Errorf("%w: %s.html.tmpl", ErrUnknownTemplate, name)
	}
	var html bytes.Buffer
	if err := tpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("exec %s.html.tmpl: %w", name, err)
	}

	// subjects are single-line headers
	subject = strings.Join(strings.Fields(subject), " ")
	return Message{Subject: subject, Text: text, HTML: html.String()}, nil
}

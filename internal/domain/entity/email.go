package entity

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/user-service/internal/domain"
)

var emailValidate = validator.New()

// Email is a normalized, validated email address. The zero value is not a valid Email;
// construct it with NewEmail.
type Email struct {
	value string
}

// NewEmail trims and lower-cases raw and checks it against the standard email grammar.
func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return Email{}, fmt.Errorf("%w: empty email", domain.ErrInvalidEmailFormat)
	}
	if err := emailValidate.Var(v, "email"); err != nil {
		return Email{}, fmt.Errorf("%w: %q", domain.ErrInvalidEmailFormat, raw)
	}
	return Email{value: v}, nil
}

func (e Email) Value() string  { return e.value }
func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

package valueobjects

import (
	"regexp"
	"strings"

	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email é um value object que garante que emails sejam sempre válidos.
// O valor zero representa um email não informado.
type Email struct {
	value string
}

// NewEmail cria um novo Email validado.
// Só o domínio é normalizado para minúsculas; a parte local é preservada.
func NewEmail(email string) (Email, error) {
	email = normalizeEmail(email)

	if !isValidEmail(email) {
		return Email{}, domainerrors.ErrInvalidEmail
	}

	return Email{value: email}, nil
}

// NewOptionalEmail aceita string vazia (email em branco é permitido para usuários)
func NewOptionalEmail(email string) (Email, error) {
	if strings.TrimSpace(email) == "" {
		return Email{}, nil
	}
	return NewEmail(email)
}

// String retorna o valor do email
func (e Email) String() string {
	return e.value
}

// IsEmpty indica se o email não foi informado
func (e Email) IsEmpty() bool {
	return e.value == ""
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// isValidEmail valida o formato do email
func isValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return emailPattern.MatchString(email)
}

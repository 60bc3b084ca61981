package valueobjects

import (
	"regexp"
	"strings"
	"unicode/utf8"

	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
)

// UsernameMaxLength é o tamanho máximo da coluna username
const UsernameMaxLength = 150

// Letras, dígitos e @/./+/-/_ apenas
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+\-]+$`)

// Username é o identificador público e único de um usuário
type Username struct {
	value string
}

// NewUsername cria um Username validado
func NewUsername(username string) (Username, error) {
	username = strings.TrimSpace(username)

	if !IsValidUsername(username) {
		return Username{}, domainerrors.ErrInvalidUsername
	}

	return Username{value: username}, nil
}

// IsValidUsername verifica tamanho e caracteres permitidos
func IsValidUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	if n == 0 || n > UsernameMaxLength {
		return false
	}
	return usernamePattern.MatchString(username)
}

func (u Username) String() string {
	return u.value
}

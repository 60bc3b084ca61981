package errors

import "errors"

// Business errors
// Nota: Estes são códigos de erro (message IDs para i18n).
// As traduções devem estar em internal/infrastructure/i18n/locales/*.json
var (
	ErrUserNotFound          = errors.New("error.user_not_found")
	ErrUsernameAlreadyExists = errors.New("error.username_already_exists")
	ErrImageNotFound         = errors.New("error.image_not_found")
)

// Domain errors
// Nota: Estes são códigos de erro (message IDs para i18n).
// As traduções devem estar em internal/infrastructure/i18n/locales/*.json
var (
	ErrInvalidEmail    = errors.New("error.invalid_email")
	ErrInvalidUsername = errors.New("error.invalid_username")
	ErrInvalidName     = errors.New("error.invalid_name")
	ErrInvalidPassword = errors.New("error.invalid_password")
	ErrInvalidImage    = errors.New("error.invalid_image")
	ErrImageTooLarge   = errors.New("error.image_too_large")
)

// ProblemType define tipos de problemas (URIs RFC 7807)
// Nota: O domínio base virá de configuração (API_BASE_URL)
//
//nolint:misspell
const (
	ProblemTypeValidation = "/problems/validation-error"
	ProblemTypeNotFound   = "/problems/not-found"
	ProblemTypeConflict   = "/problems/conflict"
	ProblemTypeInternal   = "/problems/internal-error"
	ProblemTypeBadRequest = "/problems/bad-request"
	ProblemTypeTooLarge   = "/problems/payload-too-large"
)

// DomainError representa um erro de domínio com contexto adicional
type DomainError struct {
	Type    string
	Title   string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError cria um DomainError de validação que continua
// reconhecível via errors.Is pelo erro base (ex: ErrInvalidUsername)
func NewValidationError(err error, message string) *DomainError {
	return &DomainError{
		Type:    ProblemTypeValidation,
		Title:   "error.validation.title",
		Message: message,
		Err:     err,
	}
}

package repositories

import (
	"context"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
)

// UserRepository define a interface para persistência de usuários.
// Buscas retornam (nil, nil) quando o registro não existe.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters UserFilters) ([]*entities.User, error)
	Count(ctx context.Context, filters UserFilters) (int64, error)
}

// UserFilters contém filtros para listagem de usuários
type UserFilters struct {
	IsActive *bool
	IsStaff  *bool
	Search   string // busca parcial em username e email
	Page     int    // Página (começa em 1)
	PageSize int    // Itens por página (default: 20, max: 100)
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize aplica os limites de paginação
func (f UserFilters) Normalize() UserFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset retorna o deslocamento da página atual
func (f UserFilters) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.PageSize
}

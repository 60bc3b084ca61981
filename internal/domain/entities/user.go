package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
)

const (
	// ImageUploadTo é o diretório (relativo à raiz de mídia) das imagens de usuário
	ImageUploadTo = "user_image"
	// ImageNameMaxLength é o tamanho da coluna que guarda o nome do arquivo
	ImageNameMaxLength = 100
	// NameMaxLength vale para first_name e last_name
	NameMaxLength = 150
)

// User representa uma conta de usuário do sistema
type User struct {
	ID           uint
	Username     string
	Email        valueobjects.Email
	FirstName    string
	LastName     string
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	IsSuperuser  bool
	LastLogin    *time.Time
	DateJoined   time.Time
	Image        *string // nome relativo do arquivo em ImageUploadTo; nil quando ausente
}

// String retorna a representação de exibição do usuário (o username)
func (u *User) String() string {
	return u.Username
}

// FullName retorna first_name e last_name separados por espaço
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ShortName retorna o primeiro nome
func (u *User) ShortName() string {
	return u.FirstName
}

// HasImage verifica se o usuário tem imagem associada
func (u *User) HasImage() bool {
	return u.Image != nil && *u.Image != ""
}

// SetImage associa uma imagem já armazenada ao usuário
func (u *User) SetImage(name string) {
	u.Image = &name
}

// ClearImage remove a referência à imagem, retornando o nome anterior (se houver)
func (u *User) ClearImage() *string {
	previous := u.Image
	u.Image = nil
	return previous
}

// Role deriva o papel do usuário a partir das flags
func (u *User) Role() Role {
	switch {
	case u.IsSuperuser:
		return RoleSuperuser
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleMember
	}
}

// HasPermission verifica se o usuário tem uma permissão.
// Usuários inativos não têm nenhuma permissão.
func (u *User) HasPermission(permission Permission) bool {
	if !u.IsActive {
		return false
	}
	return u.Role().HasPermission(permission)
}

// GetPermissions retorna todas as permissões do usuário
func (u *User) GetPermissions() []string {
	if !u.IsActive {
		return []string{}
	}
	perms := u.Role().GetPermissions()
	result := make([]string, len(perms))
	for i, p := range perms {
		result[i] = string(p)
	}
	return result
}

// Validate valida regras de negócio da entidade User
func (u *User) Validate() error {
	if !valueobjects.IsValidUsername(u.Username) {
		return domainerrors.ErrInvalidUsername
	}

	if utf8.RuneCountInString(u.FirstName) > NameMaxLength || utf8.RuneCountInString(u.LastName) > NameMaxLength {
		return domainerrors.ErrInvalidName
	}

	if u.Image != nil && len(*u.Image) > ImageNameMaxLength {
		return domainerrors.ErrInvalidImage
	}

	return nil
}

package dto

import (
	"time"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/services"
)

// CreateUserRequest representa a requisição para criar um usuário
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,username"`
	Email       string `json:"email" binding:"omitempty,email,max=254"`
	FirstName   string `json:"first_name" binding:"max=150"`
	LastName    string `json:"last_name" binding:"max=150"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// ToInput converte a requisição para o input do serviço
func (r CreateUserRequest) ToInput() services.CreateUserInput {
	return services.CreateUserInput{
		Username:    r.Username,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Password:    r.Password,
		IsStaff:     r.IsStaff,
		IsSuperuser: r.IsSuperuser,
	}
}

// UpdateUserRequest representa a requisição para atualizar um usuário (PATCH)
type UpdateUserRequest struct {
	Username    *string `json:"username" binding:"omitempty,username"`
	Email       *string `json:"email" binding:"omitempty,max=254"`
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	IsStaff     *bool   `json:"is_staff"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// ToInput converte a requisição para o input do serviço
func (r UpdateUserRequest) ToInput() services.UpdateUserInput {
	return services.UpdateUserInput{
		Username:    r.Username,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		IsStaff:     r.IsStaff,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
	}
}

// ListUsersQuery representa os filtros da listagem (query string)
type ListUsersQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=150"`
	IsActive *bool  `form:"is_active"`
	IsStaff  *bool  `form:"is_staff"`
}

// ToFilters converte a query para filtros do repositório
func (q ListUsersQuery) ToFilters() repositories.UserFilters {
	return repositories.UserFilters{
		IsActive: q.IsActive,
		IsStaff:  q.IsStaff,
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	}.Normalize()
}

// UserResponse representa a resposta de um usuário
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Display     string     `json:"display"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	IsStaff     bool       `json:"is_staff"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	Permissions []string   `json:"permissions"`
	LastLogin   *time.Time `json:"last_login"`
	DateJoined  time.Time  `json:"date_joined"`
	Image       *string    `json:"image"`
	ImageURL    *string    `json:"image_url"`
}

// ListUsersResponse representa uma página de usuários
type ListUsersResponse struct {
	Items    []UserResponse `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ToUserResponse converte uma entidade User para UserResponse
func ToUserResponse(user *entities.User, imageURL *string) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Display:     user.String(),
		Email:       user.Email.String(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		IsStaff:     user.IsStaff,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		Permissions: user.GetPermissions(),
		LastLogin:   user.LastLogin,
		DateJoined:  user.DateJoined,
		Image:       user.Image,
		ImageURL:    imageURL,
	}
}

// ToUserResponses converte uma lista de entidades User para UserResponse
func ToUserResponses(users []*entities.User, imageURL func(*entities.User) *string) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = ToUserResponse(user, imageURL(user))
	}
	return responses
}

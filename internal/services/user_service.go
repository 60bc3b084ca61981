package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	"github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 72 // limite do bcrypt
)

// UserService contém a lógica de negócio para usuários
type UserService struct {
	userRepo repositories.UserRepository
	uow      ports.UnitOfWork
	storage  ports.ImageStorage
	logger   ports.Logger
}

// NewUserService cria um novo UserService
func NewUserService(
	userRepo repositories.UserRepository,
	uow ports.UnitOfWork,
	storage ports.ImageStorage,
	logger ports.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		uow:      uow,
		storage:  storage,
		logger:   logger,
	}
}

// CreateUserInput representa os dados para criar um usuário
type CreateUserInput struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// UpdateUserInput contém apenas os campos a alterar (nil = manter)
type UpdateUserInput struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	IsStaff     *bool
	IsActive    *bool
	IsSuperuser *bool
}

// CreateUser cria um novo usuário ativo
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*entities.User, error) {
	s.logger.Info("creating user", "username", input.Username)

	username, err := valueobjects.NewUsername(input.Username)
	if err != nil {
		return nil, err
	}

	email, err := valueobjects.NewOptionalEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if len(input.Password) < passwordMinLength || len(input.Password) > passwordMaxLength {
		return nil, errors.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Username:     username.String(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		IsStaff:      input.IsStaff,
		IsSuperuser:  input.IsSuperuser,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureUnique(txCtx, user, 0); err != nil {
			return err
		}
		return s.userRepo.Create(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.String())
	return user, nil
}

// GetUser busca um usuário por ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.ErrUserNotFound
	}
	return user, nil
}

// ListUsers lista usuários com filtros e retorna também o total sem paginação
func (s *UserService) ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*entities.User, int64, error) {
	filters = filters.Normalize()

	users, err := s.userRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.userRepo.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateUser altera os campos informados
func (s *UserService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*entities.User, error) {
	var user *entities.User

	err := s.uow.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.GetUser(txCtx, id)
		if err != nil {
			return err
		}

		if err := applyUpdate(user, input); err != nil {
			return err
		}
		if err := user.Validate(); err != nil {
			return err
		}
		if err := s.ensureUnique(txCtx, user, user.ID); err != nil {
			return err
		}

		return s.userRepo.Update(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", user.ID)
	return user, nil
}

// DeleteUser remove o usuário e a imagem associada
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	if user.HasImage() {
		s.removeImage(ctx, *user.Image)
	}

	s.logger.Info("user deleted", "user_id", id, "username", user.String())
	return nil
}

// SetUserImage grava a imagem enviada e a associa ao usuário,
// removendo a imagem anterior
func (s *UserService) SetUserImage(ctx context.Context, id uint, filename string, content io.Reader) (*entities.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	name, err := s.storage.Save(ctx, entities.ImageUploadTo, filename, content)
	if err != nil {
		return nil, err
	}

	var (
		user     *entities.User
		previous *string
	)
	err = s.uow.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.GetUser(txCtx, id)
		if err != nil {
			return err
		}

		previous = user.ClearImage()
		user.SetImage(name)
		if err := user.Validate(); err != nil {
			return err
		}
		return s.userRepo.Update(txCtx, user)
	})
	if err != nil {
		s.removeImage(ctx, name)
		return nil, err
	}

	if previous != nil && *previous != "" && *previous != name {
		s.removeImage(ctx, *previous)
	}

	s.logger.Info("user image updated", "user_id", id, "image", name)
	return user, nil
}

// ClearUserImage remove a imagem do usuário; sem imagem, nada é feito
func (s *UserService) ClearUserImage(ctx context.Context, id uint) (*entities.User, error) {
	var (
		user     *entities.User
		previous *string
	)
	err := s.uow.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.GetUser(txCtx, id)
		if err != nil {
			return err
		}

		if !user.HasImage() {
			return nil
		}

		previous = user.ClearImage()
		return s.userRepo.Update(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	if previous == nil {
		return user, nil
	}

	s.removeImage(ctx, *previous)
	s.logger.Info("user image cleared", "user_id", id)
	return user, nil
}

// ImageURL retorna a URL pública da imagem do usuário, ou nil
func (s *UserService) ImageURL(user *entities.User) *string {
	if !user.HasImage() {
		return nil
	}
	url := s.storage.URL(*user.Image)
	return &url
}

func (s *UserService) ensureUnique(ctx context.Context, user *entities.User, selfID uint) error {
	existing, err := s.userRepo.FindByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return errors.ErrUsernameAlreadyExists
	}
	return nil
}

func (s *UserService) removeImage(ctx context.Context, name string) {
	if err := s.storage.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to delete image file", "image", name, "error", err)
	}
}

func applyUpdate(user *entities.User, input UpdateUserInput) error {
	if input.Username != nil {
		username, err := valueobjects.NewUsername(*input.Username)
		if err != nil {
			return err
		}
		user.Username = username.String()
	}
	if input.Email != nil {
		email, err := valueobjects.NewOptionalEmail(*input.Email)
		if err != nil {
			return err
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsSuperuser != nil {
		user.IsSuperuser = *input.IsSuperuser
	}
	return nil
}

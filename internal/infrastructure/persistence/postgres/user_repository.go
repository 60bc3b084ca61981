package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
)

// colunas gravadas em Update; id, date_joined e password só são definidos na criação
var updatableColumns = []string{
	"last_login", "is_superuser", "username", "first_name",
	"last_name", "email", "is_staff", "is_active", "image",
}

// UserRepository implementa repositories.UserRepository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository cria um novo UserRepository
func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	model := r.toModel(user)

	db := r.getDB(ctx)
	if err := db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrUsernameAlreadyExists
		}
		return err
	}

	user.ID = model.ID
	user.DateJoined = model.DateJoined
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	model := r.toModel(user)

	db := r.getDB(ctx)
	result := db.Model(&UserModel{ID: user.ID}).Select(updatableColumns).Updates(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrUsernameAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	result := db.Delete(&UserModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*entities.User, error) {
	var models []*UserModel

	filters = filters.Normalize()
	query := r.applyFilters(r.getDB(ctx).Model(&UserModel{}), filters).
		Order("id ASC").
		Limit(filters.PageSize).
		Offset(filters.Offset())

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.toEntities(models)
}

func (r *UserRepository) Count(ctx context.Context, filters repositories.UserFilters) (int64, error) {
	var total int64
	query := r.applyFilters(r.getDB(ctx).Model(&UserModel{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *UserRepository) findOne(ctx context.Context, cond string, arg any) (*entities.User, error) {
	var model UserModel

	db := r.getDB(ctx)
	if err := db.Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.toEntity(&model)
}

func (r *UserRepository) applyFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.IsStaff != nil {
		query = query.Where("is_staff = ?", *filters.IsStaff)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike faz % e _ da busca casarem literalmente
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// getDB extrai DB do contexto (para suportar transações)
func (r *UserRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Conversores
func (r *UserRepository) toModel(user *entities.User) *UserModel {
	return &UserModel{
		ID:          user.ID,
		Password:    user.PasswordHash,
		LastLogin:   user.LastLogin,
		IsSuperuser: user.IsSuperuser,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email.String(),
		IsStaff:     user.IsStaff,
		IsActive:    user.IsActive,
		DateJoined:  user.DateJoined,
		Image:       user.Image,
	}
}

func (r *UserRepository) toEntity(model *UserModel) (*entities.User, error) {
	email, err := valueobjects.NewOptionalEmail(model.Email)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", model.ID, err)
	}

	return &entities.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        email,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		PasswordHash: model.Password,
		IsStaff:      model.IsStaff,
		IsActive:     model.IsActive,
		IsSuperuser:  model.IsSuperuser,
		LastLogin:    model.LastLogin,
		DateJoined:   model.DateJoined,
		Image:        model.Image,
	}, nil
}

func (r *UserRepository) toEntities(models []*UserModel) ([]*entities.User, error) {
	users := make([]*entities.User, 0, len(models))

	for _, model := range models {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		users = append(users, entity)
	}

	return users, nil
}

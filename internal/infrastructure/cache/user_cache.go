package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
)

// CachedUserRepository decora um UserRepository com cache de leitura por ID.
// Falhas do Redis são logadas e a leitura segue para o banco.
// Dentro de uma transação o cache não é lido nem populado, e escritas
// invalidam a chave de novo depois do commit.
type CachedUserRepository struct {
	repositories.UserRepository
	client *redis.Client
	uow    ports.UnitOfWork
	ttl    time.Duration
	logger ports.Logger
}

// NewCachedUserRepository cria o decorator; ttl <= 0 usa 5 minutos
func NewCachedUserRepository(
	next repositories.UserRepository,
	client *redis.Client,
	uow ports.UnitOfWork,
	ttl time.Duration,
	logger ports.Logger,
) repositories.UserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedUserRepository{
		UserRepository: next,
		client:         client,
		uow:            uow,
		ttl:            ttl,
		logger:         logger.With("component", "user_cache"),
	}
}

func (c *CachedUserRepository) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	if c.uow.InTransaction(ctx) {
		return c.UserRepository.FindByID(ctx, id)
	}

	raw, err := c.client.Get(ctx, UserKey(id)).Bytes()
	switch {
	case err == nil:
		user, decodeErr := decodeUser(raw)
		if decodeErr == nil {
			return user, nil
		}
		c.logger.Warn("discarding invalid cache entry", "user_id", id, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("redis get failed", "user_id", id, "error", err)
	}

	user, err := c.UserRepository.FindByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	c.store(ctx, user)
	return user, nil
}

func (c *CachedUserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := c.UserRepository.Update(ctx, user); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, user.ID)
	return nil
}

func (c *CachedUserRepository) Delete(ctx context.Context, id uint) error {
	if err := c.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, id)
	return nil
}

func (c *CachedUserRepository) store(ctx context.Context, user *entities.User) {
	payload, err := encodeUser(user)
	if err != nil {
		c.logger.Warn("marshal user cache failed", "user_id", user.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, UserKey(user.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "user_id", user.ID, "error", err)
	}
}

// invalidateAfterCommit remove a chave agora e, dentro de transação, de novo após o
// commit, descartando valores antigos gravados por leitores concorrentes nesse intervalo
func (c *CachedUserRepository) invalidateAfterCommit(ctx context.Context, id uint) {
	c.invalidate(ctx, id)
	if c.uow.InTransaction(ctx) {
		c.uow.AfterCommit(ctx, func(ctx context.Context) { c.invalidate(ctx, id) })
	}
}

func (c *CachedUserRepository) invalidate(ctx context.Context, id uint) {
	if err := c.client.Del(ctx, UserKey(id)).Err(); err != nil {
		c.logger.Warn("redis delete failed", "user_id", id, "error", err)
	}
}

// UserKey retorna a chave do usuário no Redis
func UserKey(id uint) string {
	return fmt.Sprintf("accounts:user:%d", id)
}

// cachedUser é a forma serializada de entities.User; o hash da senha fica fora do cache
type cachedUser struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	IsStaff     bool       `json:"is_staff"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	DateJoined  time.Time  `json:"date_joined"`
	Image       *string    `json:"image"`
}

func encodeUser(u *entities.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsStaff:     u.IsStaff,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		DateJoined:  u.DateJoined,
		Image:       u.Image,
	})
}

func decodeUser(raw []byte) (*entities.User, error) {
	var c cachedUser
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	email, err := valueobjects.NewOptionalEmail(c.Email)
	if err != nil {
		return nil, err
	}
	return &entities.User{
		ID:          c.ID,
		Username:    c.Username,
		Email:       email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		IsStaff:     c.IsStaff,
		IsActive:    c.IsActive,
		IsSuperuser: c.IsSuperuser,
		LastLogin:   c.LastLogin,
		DateJoined:  c.DateJoined,
		Image:       c.Image,
	}, nil
}

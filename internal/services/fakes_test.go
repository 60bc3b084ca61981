package services_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
)

// fakeUserRepository guarda cópias dos usuários em memória
type fakeUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]entities.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[uint]entities.User{}}
}

func (r *fakeUserRepository) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepository) FindByID(_ context.Context, id uint) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepository) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	return r.findBy(func(u entities.User) bool { return u.Username == username })
}

func (r *fakeUserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	return r.findBy(func(u entities.User) bool { return u.Email.String() == email })
}

func (r *fakeUserRepository) findBy(match func(entities.User) bool) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domainerrors.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domainerrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepository) List(_ context.Context, filters repositories.UserFilters) ([]*entities.User, error) {
	all := r.sorted()
	filters = filters.Normalize()
	start := filters.Offset()
	if start > len(all) {
		return []*entities.User{}, nil
	}
	end := start + filters.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *fakeUserRepository) Count(_ context.Context, _ repositories.UserFilters) (int64, error) {
	return int64(len(r.sorted())), nil
}

func (r *fakeUserRepository) sorted() []*entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeUnitOfWork executa a função sem transação real
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (fakeUnitOfWork) Commit(context.Context) error                       { return nil }
func (fakeUnitOfWork) Rollback(context.Context) error                     { return nil }
func (fakeUnitOfWork) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
func (fakeUnitOfWork) InTransaction(context.Context) bool { return false }
func (fakeUnitOfWork) AfterCommit(ctx context.Context, fn func(context.Context)) {
	fn(ctx)
}

// fakeImageStorage registra os arquivos salvos e removidos
type fakeImageStorage struct {
	mu      sync.Mutex
	seq     int
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeImageStorage() *fakeImageStorage {
	return &fakeImageStorage{files: map[string][]byte{}}
}

func (s *fakeImageStorage) Save(_ context.Context, uploadTo, _ string, content io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	name := fmt.Sprintf("%s/img%d.png", uploadTo, s.seq)
	s.files[name] = data
	return name, nil
}

func (s *fakeImageStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *fakeImageStorage) URL(name string) string {
	return "/media/" + name
}

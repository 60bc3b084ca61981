package postgres

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
)

type contextKey string

const (
	txKey    contextKey = "tx"
	hooksKey contextKey = "tx_hooks"
)

// commitHooks guarda os callbacks agendados com AfterCommit
type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

func (h *commitHooks) add(fn func(context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

// drain devolve os callbacks e esvazia a lista
func (h *commitHooks) drain() []func(context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fns := h.fns
	h.fns = nil
	return fns
}

// txFromContext retorna a transação aberta por Begin, se houver
func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return tx, ok
}

// UnitOfWork implementa ports.UnitOfWork
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork cria um novo UnitOfWork
func NewUnitOfWork(db *gorm.DB) ports.UnitOfWork {
	return &UnitOfWork{db: db}
}

func (uow *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, tx.Error
	}
	ctx = context.WithValue(ctx, hooksKey, &commitHooks{})
	return context.WithValue(ctx, txKey, tx), nil
}

// Commit confirma a transação do contexto e executa os callbacks de AfterCommit;
// sem transação não faz nada
func (uow *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return nil
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	if hooks, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		hookCtx := context.WithoutCancel(ctx)
		for _, fn := range hooks.drain() {
			fn(hookCtx)
		}
	}
	return nil
}

func (uow *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return nil
	}
	if hooks, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		hooks.drain()
	}
	return tx.Rollback().Error
}

func (uow *UnitOfWork) InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

func (uow *UnitOfWork) AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		hooks.add(fn)
		return
	}
	fn(ctx)
}

// WithTransaction executa fn numa transação; transações aninhadas reutilizam a externa.
// Erro ou panic em fn desfazem a transação.
func (uow *UnitOfWork) WithTransaction(ctx context.Context, fn func(context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback(txCtx)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return uow.Commit(txCtx)
}

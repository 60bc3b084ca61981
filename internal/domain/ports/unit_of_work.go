package ports

import "context"

// UnitOfWork define a interface para gerenciamento de transações
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	WithTransaction(ctx context.Context, fn func(context.Context) error) error

	// InTransaction indica se ctx carrega uma transação aberta
	InTransaction(ctx context.Context) bool

	// AfterCommit agenda fn para depois do commit da transação de ctx.
	// Sem transação, fn roda na hora; no rollback, é descartada.
	AfterCommit(ctx context.Context, fn func(context.Context))
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx exposes the ticket-side repositories bound to one unit of work.
type Tx interface {
	Tickets() TicketRepository
	Comments() CommentRepository
	Attachments() AttachmentRepository
	StatusChanges() StatusChangeRepository
}

// Transactor runs fn as one unit of work. When fn returns an error none of its writes persist.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Postgres-backed Transactor.
func NewTransactor(pool *pgxpool.Pool) Transactor {
	return &pgTransactor{pool: pool}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(pgTx{db: tx})
	})
}

type pgTx struct {
	db DBTX
}

func (t pgTx) Tickets() TicketRepository             { return &ticketRepository{db: t.db} }
func (t pgTx) Comments() CommentRepository           { return &commentRepository{db: t.db} }
func (t pgTx) Attachments() AttachmentRepository     { return &attachmentRepository{db: t.db} }
func (t pgTx) StatusChanges() StatusChangeRepository { return &statusChangeRepository{db: t.db} }

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one storage transaction and hands the
// transaction handle to fn as tx. Repositories receiving that handle must run
// every statement on it; repositories receiving NoTX use their own pool.
//
// The concrete type of tx is owned by the storage backend (pgx.Tx for
// Postgres, a snapshot handle for the in-memory store). A non-nil error from
// fn rolls everything back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

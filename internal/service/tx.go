package service

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// txRunner executes fn inside one database transaction; repositories receive the tx as executor.
type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

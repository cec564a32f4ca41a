// Package sqlxrepos implements the domain repositories on top of sqlx, for postgres and SQLite.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

const pqUniqueViolation = "23505"

// base holds what every repository needs: the database and a query builder using its placeholders.
type base struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func newBase(db *sqlx.DB) base {
	var format sq.PlaceholderFormat = sq.Question
	if db.DriverName() == "postgres" {
		format = sq.Dollar
	}
	return base{db: db, sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

type txKey struct{}

// conn is what queries run on: the database or a transaction.
type conn interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// conn returns the transaction carried by ctx, if any, or the database.
func (b base) conn(ctx context.Context) conn {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return b.db
}

// inTx runs fn in a transaction, joining the one carried by ctx if there is one.
// The ctx given to fn carries the transaction, so repositories called with it share it.
func (b base) inTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx, tx)
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err was raised by a unique index over table.column.
func isUniqueViolation(err error, table, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation && strings.HasPrefix(pqErr.Constraint, table+"_"+column)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed: "+table+"."+column)
	}
	return false
}

func likeValue(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

// searchExpr matches search case-insensitively against any of the columns.
func searchExpr(search string, columns ...string) sq.Or {
	val := likeValue(search)
	expr := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		expr = append(expr, sq.Expr("LOWER("+col+") LIKE ?", val))
	}
	return expr
}

func orderBy(prefix string, ordering []core.DBOrdering) []string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, prefix+ord.String())
	}
	return orderList
}

// codigoExists checks for an active row of table using codigo, other than excludeID.
func (b base) codigoExists(ctx context.Context, table, codigo, excludeID string) (bool, error) {
	where := sq.And{sq.Eq{"codigo": codigo}, sq.Eq{"ativo": true}}
	if excludeID != "" {
		where = append(where, sq.NotEq{"id": excludeID})
	}
	q, args, err := b.sb.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var count int
	if err := b.conn(ctx).GetContext(ctx, &count, q, args...); err != nil {
		return false, errors.Wrapf(err, "checking %s codigo", table)
	}
	return count > 0, nil
}

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const sessionsTable = "sessoes"

type sessionRow struct {
	ID       string    `db:"id"`
	Dados    string    `db:"dados"`
	ExpiraEm time.Time `db:"expira_em"`
}

// sqlStore keeps sessions in the "sessoes" table created by database.MigrateSessions.
type sqlStore struct {
	db *sqlx.DB
	sq sq.StatementBuilderType
}

var _ Store = (*sqlStore)(nil)

func NewSQLStore(db *sqlx.DB) *sqlStore {
	var format sq.PlaceholderFormat = sq.Question
	if db.DriverName() == "postgres" {
		format = sq.Dollar
	}
	return &sqlStore{db: db, sq: sq.StatementBuilder.PlaceholderFormat(format)}
}

func (st *sqlStore) Get(ctx context.Context, id string) (*Session, error) {
	q, args, err := st.sq.Select("id", "dados", "expira_em").From(sessionsTable).
		Where(sq.Eq{"id": id}).
		Where(sq.Gt{"expira_em": nowFunc().UTC()}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var row sessionRow
	if err = st.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "selecting session")
	}

	s := new(Session)
	if err = json.Unmarshal([]byte(row.Dados), s); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	s.ID = row.ID
	s.Expires = row.ExpiraEm.UTC()
	return s, nil
}

func (st *sqlStore) Save(ctx context.Context, s *Session) error {
	dados, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	tx, err := st.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	del, args, err := st.sq.Delete(sessionsTable).Where(sq.Eq{"id": s.ID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = tx.ExecContext(ctx, del, args...); err != nil {
		return errors.Wrap(err, "deleting session")
	}

	ins, args, err := st.sq.Insert(sessionsTable).
		Columns("id", "dados", "expira_em").
		Values(s.ID, string(dados), s.Expires.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = tx.ExecContext(ctx, ins, args...); err != nil {
		return errors.Wrap(err, "inserting session")
	}
	return errors.Wrap(tx.Commit(), "committing session")
}

func (st *sqlStore) Delete(ctx context.Context, id string) error {
	q, args, err := st.sq.Delete(sessionsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = st.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "deleting session")
}

// DeleteExpired removes the sessions past their expiry date.
func (st *sqlStore) DeleteExpired(ctx context.Context) (int64, error) {
	q, args, err := st.sq.Delete(sessionsTable).Where(sq.LtOrEq{"expira_em": nowFunc().UTC()}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := st.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	return res.RowsAffected()
}

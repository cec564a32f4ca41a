package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

const perfisTable = "perfis"

var perfilColumns = []string{
	"id", "codigo", "nome", "tipo", "email", "ativo", "password_hash", "date_joined", "last_login",
}

type perfilRow struct {
	ID           string    `db:"id"`
	Codigo       string    `db:"codigo"`
	Nome         string    `db:"nome"`
	Tipo         string    `db:"tipo"`
	Email        string    `db:"email"`
	Ativo        bool      `db:"ativo"`
	PasswordHash string    `db:"password_hash"`
	DateJoined   time.Time `db:"date_joined"`
	LastLogin    null.Time `db:"last_login"`
}

func toPerfilRow(p perfil.Perfil) perfilRow {
	return perfilRow{
		ID:           p.ID,
		Codigo:       p.Codigo,
		Nome:         p.Nome,
		Tipo:         p.Tipo,
		Email:        p.Email,
		Ativo:        p.Ativo,
		PasswordHash: string(p.PasswordHash),
		DateJoined:   p.DateJoined.UTC(),
		LastLogin:    null.NewTime(p.LastLogin.UTC(), !p.LastLogin.IsZero()),
	}
}

func (r perfilRow) perfil() perfil.Perfil {
	p := perfil.Perfil{
		ID:           r.ID,
		Codigo:       r.Codigo,
		Nome:         r.Nome,
		Tipo:         r.Tipo,
		Email:        r.Email,
		Ativo:        r.Ativo,
		PasswordHash: []byte(r.PasswordHash),
		DateJoined:   r.DateJoined.UTC(),
	}
	if r.LastLogin.Valid {
		p.LastLogin = r.LastLogin.Time.UTC()
	}
	return p
}

type perfilRepository struct {
	base
}

var _ perfil.Repository = (*perfilRepository)(nil) // interface compliance check

func NewPerfilRepository(db *sqlx.DB) *perfilRepository {
	return &perfilRepository{base: newBase(db)}
}

// uniqueErr maps unique index violations to the perfil sentinel errors.
func (repo perfilRepository) uniqueErr(err error, msg string) error {
	switch {
	case isUniqueViolation(err, perfisTable, "email"):
		return perfil.ErrEmailExists
	case isUniqueViolation(err, perfisTable, "codigo"):
		return perfil.ErrCodigoExists
	default:
		return errors.Wrap(err, msg)
	}
}

// NextCodigoSeq bumps the sequence row of ano in a single statement, creating it on first use.
func (repo perfilRepository) NextCodigoSeq(ctx context.Context, ano int) (int, error) {
	q, args, err := repo.sb.
		Insert("perfil_sequencias").
		Columns("ano", "ultimo").
		Values(ano, 1).
		Suffix("ON CONFLICT (ano) DO UPDATE SET ultimo = perfil_sequencias.ultimo + 1 RETURNING ultimo").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var seq int
	if err := repo.conn(ctx).GetContext(ctx, &seq, q, args...); err != nil {
		return 0, errors.Wrap(err, "incrementing perfil sequence")
	}
	return seq, nil
}

func (repo perfilRepository) CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error) {
	return repo.codigoExists(ctx, perfisTable, codigo, excludeID)
}

func (repo perfilRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	where := sq.And{sq.Eq{"email": email}}
	if excludeID != "" {
		where = append(where, sq.NotEq{"id": excludeID})
	}
	q, args, err := repo.sb.Select("COUNT(*)").From(perfisTable).Where(where).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var count int
	if err := repo.conn(ctx).GetContext(ctx, &count, q, args...); err != nil {
		return false, errors.Wrap(err, "checking perfil email")
	}
	return count > 0, nil
}

func (repo perfilRepository) CreatePerfil(ctx context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	row := toPerfilRow(p)
	q, args, err := repo.sb.
		Insert(perfisTable).
		Columns(perfilColumns...).
		Values(row.ID, row.Codigo, row.Nome, row.Tipo, row.Email, row.Ativo, row.PasswordHash, row.DateJoined, row.LastLogin).
		ToSql()
	if err != nil {
		return perfil.Perfil{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		return perfil.Perfil{}, repo.uniqueErr(err, "inserting perfil")
	}
	return row.perfil(), nil
}

func (repo perfilRepository) GetPerfil(ctx context.Context, filter perfil.GetFilter) (perfil.Perfil, error) {
	query := repo.sb.Select(perfilColumns...).From(perfisTable)
	switch {
	case filter.ID != "":
		query = query.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		query = query.Where(sq.Eq{"email": filter.Email})
	default:
		return perfil.Perfil{}, perfil.ErrNotFound
	}

	q, args, err := query.ToSql()
	if err != nil {
		return perfil.Perfil{}, errors.Wrap(err, "building query")
	}
	var row perfilRow
	if err := repo.conn(ctx).GetContext(ctx, &row, q, args...); err != nil {
		return perfil.Perfil{}, trapNoRowsErr(err, perfil.ErrNotFound, "getting perfil")
	}
	return row.perfil(), nil
}

func (repo perfilRepository) QueryPerfis(ctx context.Context, filter perfil.QueryFilter, ordering ...core.DBOrdering) ([]perfil.Perfil, error) {
	query := repo.sb.Select(perfilColumns...).From(perfisTable)
	if filter.Search != "" {
		query = query.Where(searchExpr(filter.Search, "email", "nome", "codigo"))
	}
	if filter.Tipo != "" {
		query = query.Where(sq.Eq{"tipo": filter.Tipo})
	}
	if filter.Ativo != nil {
		query = query.Where(sq.Eq{"ativo": *filter.Ativo})
	}
	if len(ordering) > 0 {
		query = query.OrderBy(orderBy("", ordering)...)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []perfilRow
	if err := repo.conn(ctx).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying perfis")
	}
	perfis := make([]perfil.Perfil, 0, len(rows))
	for _, row := range rows {
		perfis = append(perfis, row.perfil())
	}
	return perfis, nil
}

func (repo perfilRepository) UpdatePerfil(ctx context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	row := toPerfilRow(p)
	q, args, err := repo.sb.
		Update(perfisTable).
		SetMap(map[string]interface{}{
			"nome":          row.Nome,
			"tipo":          row.Tipo,
			"email":         row.Email,
			"ativo":         row.Ativo,
			"password_hash": row.PasswordHash,
			"last_login":    row.LastLogin,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return perfil.Perfil{}, errors.Wrap(err, "building query")
	}
	res, err := repo.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return perfil.Perfil{}, repo.uniqueErr(err, "updating perfil")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return perfil.Perfil{}, perfil.ErrNotFound
	}
	return repo.GetPerfil(ctx, perfil.GetFilter{ID: row.ID})
}

func (repo perfilRepository) DeletePerfis(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := repo.sb.Delete(perfisTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting perfis")
	}
	return nil
}

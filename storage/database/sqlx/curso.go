package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
)

const cursosTable = "cursos"

var cursoColumns = []string{"id", "codigo", "nome", "descricao", "ativo", "carga_horaria_total"}

type cursoRow struct {
	ID                string      `db:"id"`
	Codigo            string      `db:"codigo"`
	Nome              string      `db:"nome"`
	Descricao         null.String `db:"descricao"`
	Ativo             bool        `db:"ativo"`
	CargaHorariaTotal int         `db:"carga_horaria_total"`
}

func toCursoRow(c curso.Curso) cursoRow {
	return cursoRow{
		ID:                c.ID,
		Codigo:            c.Codigo,
		Nome:              c.Nome,
		Descricao:         null.StringFromPtr(c.Descricao),
		Ativo:             c.Ativo,
		CargaHorariaTotal: c.CargaHorariaTotal,
	}
}

func (r cursoRow) curso() curso.Curso {
	return curso.Curso{
		ID:                r.ID,
		Codigo:            r.Codigo,
		Nome:              r.Nome,
		Descricao:         r.Descricao.Ptr(),
		Ativo:             r.Ativo,
		CargaHorariaTotal: r.CargaHorariaTotal,
	}
}

type cursoRepository struct {
	base
}

var _ curso.Repository = (*cursoRepository)(nil) // interface compliance check

func NewCursoRepository(db *sqlx.DB) *cursoRepository {
	return &cursoRepository{base: newBase(db)}
}

func (repo cursoRepository) uniqueErr(err error, msg string) error {
	if isUniqueViolation(err, cursosTable, "codigo") {
		return curso.ErrCodigoExists
	}
	return errors.Wrap(err, msg)
}

func (repo cursoRepository) CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error) {
	return repo.codigoExists(ctx, cursosTable, codigo, excludeID)
}

func (repo cursoRepository) CreateCurso(ctx context.Context, c curso.Curso) (curso.Curso, error) {
	row := toCursoRow(c)
	q, args, err := repo.sb.
		Insert(cursosTable).
		Columns(cursoColumns...).
		Values(row.ID, row.Codigo, row.Nome, row.Descricao, row.Ativo, row.CargaHorariaTotal).
		ToSql()
	if err != nil {
		return curso.Curso{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		return curso.Curso{}, repo.uniqueErr(err, "inserting curso")
	}
	return row.curso(), nil
}

func (repo cursoRepository) GetCurso(ctx context.Context, id string) (curso.Curso, error) {
	q, args, err := repo.sb.Select(cursoColumns...).From(cursosTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return curso.Curso{}, errors.Wrap(err, "building query")
	}
	var row cursoRow
	if err := repo.conn(ctx).GetContext(ctx, &row, q, args...); err != nil {
		return curso.Curso{}, trapNoRowsErr(err, curso.ErrNotFound, "getting curso")
	}
	return row.curso(), nil
}

func (repo cursoRepository) QueryCursos(ctx context.Context, filter curso.QueryFilter, ordering ...core.DBOrdering) ([]curso.Curso, error) {
	query := repo.sb.Select(cursoColumns...).From(cursosTable)
	if filter.Search != "" {
		query = query.Where(searchExpr(filter.Search, "nome", "codigo", "descricao"))
	}
	if filter.Codigo != "" {
		query = query.Where(sq.Eq{"codigo": filter.Codigo})
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
	var rows []cursoRow
	if err := repo.conn(ctx).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying cursos")
	}
	cursos := make([]curso.Curso, 0, len(rows))
	for _, row := range rows {
		cursos = append(cursos, row.curso())
	}
	return cursos, nil
}

func (repo cursoRepository) UpdateCurso(ctx context.Context, c curso.Curso) (curso.Curso, error) {
	row := toCursoRow(c)
	q, args, err := repo.sb.
		Update(cursosTable).
		SetMap(map[string]interface{}{
			"codigo":              row.Codigo,
			"nome":                row.Nome,
			"descricao":           row.Descricao,
			"ativo":               row.Ativo,
			"carga_horaria_total": row.CargaHorariaTotal,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return curso.Curso{}, errors.Wrap(err, "building query")
	}
	res, err := repo.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return curso.Curso{}, repo.uniqueErr(err, "updating curso")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curso.Curso{}, curso.ErrNotFound
	}
	return row.curso(), nil
}

// DeleteCursos removes the Disciplinas of the Cursos first so engines without cascading foreign keys behave the same.
func (repo cursoRepository) DeleteCursos(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return repo.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, stmt := range []sq.DeleteBuilder{
			repo.sb.Delete(disciplinasTable).Where(sq.Eq{"curso_id": ids}),
			repo.sb.Delete(cursosTable).Where(sq.Eq{"id": ids}),
		} {
			q, args, err := stmt.ToSql()
			if err != nil {
				return errors.Wrap(err, "building query")
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return errors.Wrap(err, "deleting cursos")
			}
		}
		return nil
	})
}

// LockCurso runs fn in a transaction that holds the write lock of the Curso row.
// The no-op update locks the row on postgres and takes the database write lock on SQLite,
// so concurrent writers of the Curso and its Disciplinas wait until fn's transaction ends.
func (repo cursoRepository) LockCurso(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	return repo.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		q, args, err := repo.sb.Update(cursosTable).Set("id", sq.Expr("id")).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrap(err, "locking curso")
		}
		return fn(ctx)
	})
}

func (repo cursoRepository) GetResumo(ctx context.Context, id string) (curso.Resumo, error) {
	q, args, err := repo.sb.
		Select("COUNT(*)", "COALESCE(SUM(carga_horaria), 0)").
		From(disciplinasTable).
		Where(sq.Eq{"curso_id": id, "ativo": true}).
		ToSql()
	if err != nil {
		return curso.Resumo{}, errors.Wrap(err, "building query")
	}
	var resumo curso.Resumo
	err = repo.conn(ctx).QueryRowxContext(ctx, q, args...).Scan(
		&resumo.TotalDisciplinasAtivas, &resumo.SomaCargaHorariaDisciplinasAtivas,
	)
	if err != nil {
		return curso.Resumo{}, errors.Wrap(err, "summarizing curso")
	}
	return resumo, nil
}

func (repo cursoRepository) SomaCargaHorariaAtiva(ctx context.Context, cursoID, excludeDisciplinaID string) (int, error) {
	where := sq.And{sq.Eq{"curso_id": cursoID, "ativo": true}}
	if excludeDisciplinaID != "" {
		where = append(where, sq.NotEq{"id": excludeDisciplinaID})
	}
	q, args, err := repo.sb.Select("COALESCE(SUM(carga_horaria), 0)").From(disciplinasTable).Where(where).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var soma int
	if err := repo.conn(ctx).GetContext(ctx, &soma, q, args...); err != nil {
		return 0, errors.Wrap(err, "summing disciplinas")
	}
	return soma, nil
}

package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
)

const disciplinasTable = "disciplinas"

var disciplinaColumns = []string{"id", "codigo", "nome", "carga_horaria", "curso_id", "ativo"}

type disciplinaRow struct {
	ID           string `db:"id"`
	Codigo       string `db:"codigo"`
	Nome         string `db:"nome"`
	CargaHoraria int    `db:"carga_horaria"`
	CursoID      string `db:"curso_id"`
	Ativo        bool   `db:"ativo"`
}

type disciplinaItemRow struct {
	disciplinaRow
	CursoNome   string `db:"curso_nome"`
	CursoCodigo string `db:"curso_codigo"`
}

func toDisciplinaRow(d disciplina.Disciplina) disciplinaRow {
	return disciplinaRow{
		ID:           d.ID,
		Codigo:       d.Codigo,
		Nome:         d.Nome,
		CargaHoraria: d.CargaHoraria,
		CursoID:      d.CursoID,
		Ativo:        d.Ativo,
	}
}

func (r disciplinaRow) disciplina() disciplina.Disciplina {
	return disciplina.Disciplina{
		ID:           r.ID,
		Codigo:       r.Codigo,
		Nome:         r.Nome,
		CargaHoraria: r.CargaHoraria,
		CursoID:      r.CursoID,
		Ativo:        r.Ativo,
	}
}

type disciplinaRepository struct {
	base
}

var _ disciplina.Repository = (*disciplinaRepository)(nil) // interface compliance check

func NewDisciplinaRepository(db *sqlx.DB) *disciplinaRepository {
	return &disciplinaRepository{base: newBase(db)}
}

func (repo disciplinaRepository) uniqueErr(err error, msg string) error {
	if isUniqueViolation(err, disciplinasTable, "codigo") {
		return disciplina.ErrCodigoExists
	}
	return errors.Wrap(err, msg)
}

func (repo disciplinaRepository) CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error) {
	return repo.codigoExists(ctx, disciplinasTable, codigo, excludeID)
}

func (repo disciplinaRepository) CreateDisciplina(ctx context.Context, d disciplina.Disciplina) (disciplina.Disciplina, error) {
	row := toDisciplinaRow(d)
	q, args, err := repo.sb.
		Insert(disciplinasTable).
		Columns(disciplinaColumns...).
		Values(row.ID, row.Codigo, row.Nome, row.CargaHoraria, row.CursoID, row.Ativo).
		ToSql()
	if err != nil {
		return disciplina.Disciplina{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		return disciplina.Disciplina{}, repo.uniqueErr(err, "inserting disciplina")
	}
	return row.disciplina(), nil
}

func (repo disciplinaRepository) GetDisciplina(ctx context.Context, id string) (disciplina.Disciplina, error) {
	q, args, err := repo.sb.Select(disciplinaColumns...).From(disciplinasTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return disciplina.Disciplina{}, errors.Wrap(err, "building query")
	}
	var row disciplinaRow
	if err := repo.conn(ctx).GetContext(ctx, &row, q, args...); err != nil {
		return disciplina.Disciplina{}, trapNoRowsErr(err, disciplina.ErrNotFound, "getting disciplina")
	}
	return row.disciplina(), nil
}

func (repo disciplinaRepository) QueryDisciplinas(ctx context.Context, filter disciplina.QueryFilter, ordering ...core.DBOrdering) ([]disciplina.Item, error) {
	columns := make([]string, 0, len(disciplinaColumns)+2)
	for _, col := range disciplinaColumns {
		columns = append(columns, "d."+col)
	}
	columns = append(columns, "c.nome AS curso_nome", "c.codigo AS curso_codigo")

	query := repo.sb.
		Select(columns...).
		From(disciplinasTable + " d").
		Join(cursosTable + " c ON c.id = d.curso_id")
	if filter.Search != "" {
		query = query.Where(searchExpr(filter.Search, "d.nome", "d.codigo"))
	}
	if filter.CursoID != "" {
		query = query.Where(sq.Eq{"d.curso_id": filter.CursoID})
	}
	if filter.Ativo != nil {
		query = query.Where(sq.Eq{"d.ativo": *filter.Ativo})
	}
	if len(ordering) > 0 {
		query = query.OrderBy(orderBy("d.", ordering)...)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []disciplinaItemRow
	if err := repo.conn(ctx).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying disciplinas")
	}
	items := make([]disciplina.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, disciplina.Item{
			Disciplina:  row.disciplina(),
			CursoNome:   row.CursoNome,
			CursoCodigo: row.CursoCodigo,
		})
	}
	return items, nil
}

func (repo disciplinaRepository) UpdateDisciplina(ctx context.Context, d disciplina.Disciplina) (disciplina.Disciplina, error) {
	row := toDisciplinaRow(d)
	q, args, err := repo.sb.
		Update(disciplinasTable).
		SetMap(map[string]interface{}{
			"codigo":        row.Codigo,
			"nome":          row.Nome,
			"carga_horaria": row.CargaHoraria,
			"curso_id":      row.CursoID,
			"ativo":         row.Ativo,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return disciplina.Disciplina{}, errors.Wrap(err, "building query")
	}
	res, err := repo.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return disciplina.Disciplina{}, repo.uniqueErr(err, "updating disciplina")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return disciplina.Disciplina{}, disciplina.ErrNotFound
	}
	return row.disciplina(), nil
}

func (repo disciplinaRepository) DeleteDisciplinas(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := repo.sb.Delete(disciplinasTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting disciplinas")
	}
	return nil
}

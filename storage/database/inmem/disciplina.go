package inmemdb

import (
	"context"
	"sort"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
)

type disciplinaRepository struct {
	db *DB
}

var _ disciplina.Repository = (*disciplinaRepository)(nil) // interface compliance check

func NewDisciplinaRepository(db *DB) *disciplinaRepository {
	return &disciplinaRepository{db: db}
}

func (repo *disciplinaRepository) codigoExists(codigo, excludeID string) bool {
	for _, d := range repo.db.disciplinas {
		if d.Ativo && d.Codigo == codigo && d.ID != excludeID {
			return true
		}
	}
	return false
}

func (repo *disciplinaRepository) CodigoExists(_ context.Context, codigo, excludeID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.codigoExists(codigo, excludeID), nil
}

// checkWrite plays the part of the unique index and the foreign key.
func (repo *disciplinaRepository) checkWrite(d disciplina.Disciplina) error {
	if d.Ativo && repo.codigoExists(d.Codigo, d.ID) {
		return disciplina.ErrCodigoExists
	}
	if _, ok := repo.db.cursos[d.CursoID]; !ok {
		return disciplina.ErrCursoNotFound
	}
	return nil
}

func (repo *disciplinaRepository) CreateDisciplina(_ context.Context, d disciplina.Disciplina) (disciplina.Disciplina, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkWrite(d); err != nil {
		return disciplina.Disciplina{}, err
	}
	if d.ID == "" {
		d.ID = core.NewID()
	}
	repo.db.disciplinas[d.ID] = &d
	return d, nil
}

func (repo *disciplinaRepository) GetDisciplina(_ context.Context, id string) (disciplina.Disciplina, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.disciplinas[id]; ok {
		return *d, nil
	}
	return disciplina.Disciplina{}, disciplina.ErrNotFound
}

func (repo *disciplinaRepository) QueryDisciplinas(_ context.Context, filter disciplina.QueryFilter, ordering ...core.DBOrdering) ([]disciplina.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := make([]disciplina.Item, 0, len(repo.db.disciplinas))
	for _, d := range repo.db.disciplinas {
		if filter.Search != "" && !matches(filter.Search, d.Nome, d.Codigo) {
			continue
		}
		if filter.CursoID != "" && d.CursoID != filter.CursoID {
			continue
		}
		if filter.Ativo != nil && d.Ativo != *filter.Ativo {
			continue
		}
		item := disciplina.Item{Disciplina: *d}
		if c, ok := repo.db.cursos[d.CursoID]; ok {
			item.CursoNome = c.Nome
			item.CursoCodigo = c.Codigo
		}
		items = append(items, item)
	}

	sort.SliceStable(items, lessBy(ordering, func(i int, name string) interface{} {
		d := items[i]
		switch name {
		case "nome":
			return d.Nome
		case "carga_horaria":
			return d.CargaHoraria
		default:
			return d.Codigo
		}
	}))
	return items, nil
}

func (repo *disciplinaRepository) UpdateDisciplina(_ context.Context, d disciplina.Disciplina) (disciplina.Disciplina, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.disciplinas[d.ID]; !ok {
		return disciplina.Disciplina{}, disciplina.ErrNotFound
	}
	if err := repo.checkWrite(d); err != nil {
		return disciplina.Disciplina{}, err
	}
	repo.db.disciplinas[d.ID] = &d
	return d, nil
}

func (repo *disciplinaRepository) DeleteDisciplinas(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.disciplinas, id)
	}
	return nil
}

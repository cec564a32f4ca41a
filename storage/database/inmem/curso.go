package inmemdb

import (
	"context"
	"sort"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
)

type cursoRepository struct {
	db *DB
}

var _ curso.Repository = (*cursoRepository)(nil) // interface compliance check

func NewCursoRepository(db *DB) *cursoRepository {
	return &cursoRepository{db: db}
}

func (repo *cursoRepository) codigoExists(codigo, excludeID string) bool {
	for _, c := range repo.db.cursos {
		if c.Ativo && c.Codigo == codigo && c.ID != excludeID {
			return true
		}
	}
	return false
}

func (repo *cursoRepository) CodigoExists(_ context.Context, codigo, excludeID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.codigoExists(codigo, excludeID), nil
}

func (repo *cursoRepository) CreateCurso(_ context.Context, c curso.Curso) (curso.Curso, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.Ativo && repo.codigoExists(c.Codigo, c.ID) {
		return curso.Curso{}, curso.ErrCodigoExists
	}
	if c.ID == "" {
		c.ID = core.NewID()
	}
	repo.db.cursos[c.ID] = &c
	return c, nil
}

func (repo *cursoRepository) GetCurso(_ context.Context, id string) (curso.Curso, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.cursos[id]; ok {
		return *c, nil
	}
	return curso.Curso{}, curso.ErrNotFound
}

func (repo *cursoRepository) QueryCursos(_ context.Context, filter curso.QueryFilter, ordering ...core.DBOrdering) ([]curso.Curso, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cursos := make([]curso.Curso, 0, len(repo.db.cursos))
	for _, c := range repo.db.cursos {
		var descricao string
		if c.Descricao != nil {
			descricao = *c.Descricao
		}
		if filter.Search != "" && !matches(filter.Search, c.Nome, c.Codigo, descricao) {
			continue
		}
		if filter.Codigo != "" && c.Codigo != filter.Codigo {
			continue
		}
		if filter.Ativo != nil && c.Ativo != *filter.Ativo {
			continue
		}
		cursos = append(cursos, *c)
	}

	sort.SliceStable(cursos, lessBy(ordering, func(i int, name string) interface{} {
		c := cursos[i]
		switch name {
		case "nome":
			return c.Nome
		case "carga_horaria_total":
			return c.CargaHorariaTotal
		default:
			return c.Codigo
		}
	}))
	return cursos, nil
}

func (repo *cursoRepository) UpdateCurso(_ context.Context, c curso.Curso) (curso.Curso, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.cursos[c.ID]; !ok {
		return curso.Curso{}, curso.ErrNotFound
	}
	if c.Ativo && repo.codigoExists(c.Codigo, c.ID) {
		return curso.Curso{}, curso.ErrCodigoExists
	}
	repo.db.cursos[c.ID] = &c
	return c, nil
}

func (repo *cursoRepository) DeleteCursos(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.cursos, id)
		for dID, d := range repo.db.disciplinas {
			if d.CursoID == id {
				delete(repo.db.disciplinas, dID)
			}
		}
	}
	return nil
}

func (repo *cursoRepository) GetResumo(_ context.Context, id string) (curso.Resumo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var resumo curso.Resumo
	for _, d := range repo.db.disciplinas {
		if d.CursoID == id && d.Ativo {
			resumo.TotalDisciplinasAtivas++
			resumo.SomaCargaHorariaDisciplinasAtivas += d.CargaHoraria
		}
	}
	return resumo, nil
}

func (repo *cursoRepository) SomaCargaHorariaAtiva(_ context.Context, cursoID, excludeDisciplinaID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var soma int
	for _, d := range repo.db.disciplinas {
		if d.CursoID == cursoID && d.Ativo && d.ID != excludeDisciplinaID {
			soma += d.CargaHoraria
		}
	}
	return soma, nil
}

// LockCurso runs fn while holding the write lock of the Curso id.
func (repo *cursoRepository) LockCurso(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	unlock := repo.db.lockCurso(id)
	defer unlock()
	return fn(ctx)
}

package inmemdb

import (
	"context"
	"sort"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

type perfilRepository struct {
	db *DB
}

var _ perfil.Repository = (*perfilRepository)(nil) // interface compliance check

func NewPerfilRepository(db *DB) *perfilRepository {
	return &perfilRepository{db: db}
}

func (repo *perfilRepository) NextCodigoSeq(_ context.Context, ano int) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.sequencias[ano]++
	return repo.db.sequencias[ano], nil
}

func (repo *perfilRepository) codigoExists(codigo, excludeID string) bool {
	for _, p := range repo.db.perfis {
		if p.Ativo && p.Codigo == codigo && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (repo *perfilRepository) emailExists(email, excludeID string) bool {
	for _, p := range repo.db.perfis {
		if p.Email == email && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (repo *perfilRepository) CodigoExists(_ context.Context, codigo, excludeID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.codigoExists(codigo, excludeID), nil
}

func (repo *perfilRepository) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.emailExists(email, excludeID), nil
}

// checkUnique plays the part of the unique indexes.
func (repo *perfilRepository) checkUnique(p perfil.Perfil) error {
	if repo.emailExists(p.Email, p.ID) {
		return perfil.ErrEmailExists
	}
	if p.Ativo && repo.codigoExists(p.Codigo, p.ID) {
		return perfil.ErrCodigoExists
	}
	return nil
}

func (repo *perfilRepository) CreatePerfil(_ context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUnique(p); err != nil {
		return perfil.Perfil{}, err
	}
	if p.ID == "" {
		p.ID = core.NewID()
	}
	repo.db.perfis[p.ID] = &p
	return p, nil
}

func (repo *perfilRepository) GetPerfil(_ context.Context, filter perfil.GetFilter) (perfil.Perfil, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if p, ok := repo.db.perfis[filter.ID]; ok {
			return *p, nil
		}
	case filter.Email != "":
		for _, p := range repo.db.perfis {
			if p.Email == filter.Email {
				return *p, nil
			}
		}
	}
	return perfil.Perfil{}, perfil.ErrNotFound
}

func (repo *perfilRepository) QueryPerfis(_ context.Context, filter perfil.QueryFilter, ordering ...core.DBOrdering) ([]perfil.Perfil, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	perfis := make([]perfil.Perfil, 0, len(repo.db.perfis))
	for _, p := range repo.db.perfis {
		if filter.Search != "" && !matches(filter.Search, p.Email, p.Nome, p.Codigo) {
			continue
		}
		if filter.Tipo != "" && p.Tipo != filter.Tipo {
			continue
		}
		if filter.Ativo != nil && p.Ativo != *filter.Ativo {
			continue
		}
		perfis = append(perfis, *p)
	}

	sort.SliceStable(perfis, lessBy(ordering, func(i int, name string) interface{} {
		p := perfis[i]
		switch name {
		case "codigo":
			return p.Codigo
		case "nome":
			return p.Nome
		case "tipo":
			return p.Tipo
		case "ativo":
			return p.Ativo
		default:
			return p.Email
		}
	}))
	return perfis, nil
}

func (repo *perfilRepository) UpdatePerfil(_ context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.perfis[p.ID]
	if !ok {
		return perfil.Perfil{}, perfil.ErrNotFound
	}
	// codigo and date_joined are never updated
	p.Codigo = orig.Codigo
	p.DateJoined = orig.DateJoined
	if err := repo.checkUnique(p); err != nil {
		return perfil.Perfil{}, err
	}
	repo.db.perfis[p.ID] = &p
	return p, nil
}

func (repo *perfilRepository) DeletePerfis(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.perfis, id)
	}
	return nil
}

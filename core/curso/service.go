package curso

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

var (
	// errors
	ErrNotFound     = errors.New("curso não encontrado")
	ErrCodigoExists = errors.New("já existe um curso ativo com este código")
	ErrCargaHoraria = errors.New("carga horária total menor que a soma das disciplinas ativas")
)

type (
	Repository interface {
		// CodigoExists looks for an active Curso with the given code, other than excludeID.
		CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error)
		CreateCurso(ctx context.Context, c Curso) (Curso, error)
		GetCurso(ctx context.Context, id string) (Curso, error)
		// QueryCursos applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Curso.Nome, Curso.Codigo or Curso.Descricao.
		QueryCursos(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Curso, error)
		UpdateCurso(ctx context.Context, c Curso) (Curso, error)
		// DeleteCursos deletes the Cursos along with their Disciplinas.
		DeleteCursos(ctx context.Context, ids ...string) error
		GetResumo(ctx context.Context, id string) (Resumo, error)
		// SomaCargaHorariaAtiva sums the hours of the active Disciplinas of a Curso, leaving excludeDisciplinaID out.
		SomaCargaHorariaAtiva(ctx context.Context, cursoID, excludeDisciplinaID string) (int, error)
		// LockCurso runs fn while holding the write lock of the Curso id.
		// Repository calls made with the ctx given to fn take part in the locked unit of work.
		LockCurso(ctx context.Context, id string, fn func(ctx context.Context) error) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCurso) (Curso, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Curso, error)
		GetByID(ctx context.Context, id string) (Curso, error)
		GetDetalhe(ctx context.Context, id string) (Detalhe, error)
		GetResumo(ctx context.Context, id string) (Resumo, error)
		Update(ctx context.Context, id string, uc UpdateCurso) (Curso, error)
		SetAtivo(ctx context.Context, id string, ativo bool) (Curso, error)
		Delete(ctx context.Context, ids ...string) error
		ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error)
		ValidateCapacity(ctx context.Context, cursoID string, cargaHoraria int, excludeDisciplinaID string) (bool, error)
		WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func codigoExistsErr(codigo string) error {
	return core.NewValidationError(ErrCodigoExists, core.FieldError{
		Field: "codigo",
		Error: fmt.Sprintf("Já existe um curso ativo com o código %s", codigo),
	})
}

// ValidateUniqueCodigo reports whether no other active Curso uses codigo.
func (svc *Service) ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error) {
	exists, err := svc.repo.CodigoExists(ctx, codigo, excludeID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "checking codigo uniqueness")
	}
	return !exists, nil
}

func (svc *Service) checkCodigo(ctx context.Context, codigo, excludeID string) error {
	ok, err := svc.ValidateUniqueCodigo(ctx, codigo, excludeID)
	if err != nil {
		return err
	}
	if !ok {
		return codigoExistsErr(codigo)
	}
	return nil
}

// ValidateCapacity reports whether cargaHoraria more hours fit in the Curso, not counting the
// Disciplina excludeDisciplinaID (the one being updated, if any).
func (svc *Service) ValidateCapacity(ctx context.Context, cursoID string, cargaHoraria int, excludeDisciplinaID string) (bool, error) {
	c, err := svc.GetByID(ctx, cursoID)
	if err != nil {
		return false, err
	}
	soma, err := svc.repo.SomaCargaHorariaAtiva(ctx, cursoID, excludeDisciplinaID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "summing active disciplinas")
	}
	return soma+cargaHoraria <= c.CargaHorariaTotal, nil
}

func (svc *Service) Create(ctx context.Context, nc NewCurso) (Curso, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Curso{}, err
	}
	c := Curso{
		ID:                core.NewID(),
		Codigo:            nc.Codigo,
		Nome:              nc.Nome,
		Descricao:         nc.Descricao,
		Ativo:             nc.Ativo == nil || *nc.Ativo,
		CargaHorariaTotal: nc.CargaHorariaTotal,
	}
	if c.Ativo {
		if err := svc.checkCodigo(ctx, c.Codigo, ""); err != nil {
			return Curso{}, err
		}
	}

	created, err := svc.repo.CreateCurso(ctx, c)
	if err != nil {
		return Curso{}, uniqueErr(err, c)
	}
	return created, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Curso, error) {
	filter.Clean()
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryCursos(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Curso, error) {
	if !core.IsValidID(id) {
		return Curso{}, ErrNotFound
	}
	return svc.repo.GetCurso(ctx, id)
}

func (svc *Service) GetDetalhe(ctx context.Context, id string) (Detalhe, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detalhe{}, err
	}
	resumo, err := svc.repo.GetResumo(ctx, c.ID)
	if err != nil {
		return Detalhe{}, pkgerrors.Wrap(err, "getting resumo")
	}
	return Detalhe{Curso: c, Resumo: resumo}, nil
}

func (svc *Service) GetResumo(ctx context.Context, id string) (Resumo, error) {
	d, err := svc.GetDetalhe(ctx, id)
	return d.Resumo, err
}

// WithLock runs fn while holding the write lock of the Curso id.
// Updates of the Curso and writes of its Disciplinas are serialized by this lock.
func (svc *Service) WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	return svc.repo.LockCurso(ctx, id, fn)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCurso) (Curso, error) {
	if !core.IsValidID(id) {
		return Curso{}, ErrNotFound
	}

	var updated Curso
	err := svc.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		updated, err = svc.update(ctx, id, uc)
		return err
	})
	if err != nil {
		return Curso{}, err
	}
	return updated, nil
}

func (svc *Service) update(ctx context.Context, id string, uc UpdateCurso) (Curso, error) {
	c, err := svc.repo.GetCurso(ctx, id)
	if err != nil {
		return Curso{}, err
	}
	if err := uc.Validate(c, svc.validate); err != nil {
		return Curso{}, err
	}

	ativo := c.Ativo
	if uc.Ativo != nil {
		ativo = *uc.Ativo
	}
	if ativo && (!c.Ativo || uc.Codigo != c.Codigo) {
		if err := svc.checkCodigo(ctx, uc.Codigo, c.ID); err != nil {
			return Curso{}, err
		}
	}

	if *uc.CargaHorariaTotal < c.CargaHorariaTotal {
		soma, err := svc.repo.SomaCargaHorariaAtiva(ctx, c.ID, "")
		if err != nil {
			return Curso{}, pkgerrors.Wrap(err, "summing active disciplinas")
		}
		if *uc.CargaHorariaTotal < soma {
			return Curso{}, core.NewValidationError(ErrCargaHoraria, core.FieldError{
				Field: "carga_horaria_total",
				Error: fmt.Sprintf(
					"A carga horária total do curso (%d) não pode ser menor que a soma das cargas horárias das disciplinas ativas (%d)",
					*uc.CargaHorariaTotal, soma,
				),
			})
		}
	}

	c.Codigo = uc.Codigo
	c.Nome = uc.Nome
	c.Descricao = uc.Descricao
	c.CargaHorariaTotal = *uc.CargaHorariaTotal
	c.Ativo = ativo

	updated, err := svc.repo.UpdateCurso(ctx, c)
	if err != nil {
		return Curso{}, uniqueErr(err, c)
	}
	return updated, nil
}

// SetAtivo activates or deactivates a Curso. Activation checks that the code is not in use.
func (svc *Service) SetAtivo(ctx context.Context, id string, ativo bool) (Curso, error) {
	return svc.Update(ctx, id, UpdateCurso{Ativo: &ativo})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCursos(ctx, ids...)
}

func uniqueErr(err error, c Curso) error {
	if pkgerrors.Cause(err) == ErrCodigoExists {
		return codigoExistsErr(c.Codigo)
	}
	return err
}

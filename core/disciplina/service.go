package disciplina

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
)

var (
	// errors
	ErrNotFound       = errors.New("disciplina não encontrada")
	ErrCodigoExists   = errors.New("já existe uma disciplina ativa com este código")
	ErrCursoNotFound  = errors.New("Curso não encontrado.")
	ErrCursoInativo   = errors.New("Não é possível adicionar disciplina a um curso inativado")
	ErrCapacityExceed = errors.New("carga horária do curso excedida")
)

type (
	Repository interface {
		// CodigoExists looks for an active Disciplina with the given code, other than excludeID.
		CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error)
		CreateDisciplina(ctx context.Context, d Disciplina) (Disciplina, error)
		GetDisciplina(ctx context.Context, id string) (Disciplina, error)
		// QueryDisciplinas applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Disciplina.Nome or Disciplina.Codigo.
		QueryDisciplinas(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error)
		UpdateDisciplina(ctx context.Context, d Disciplina) (Disciplina, error)
		DeleteDisciplinas(ctx context.Context, ids ...string) error
	}

	// CursoService is what Disciplinas need to know about their Curso.
	CursoService interface {
		GetByID(ctx context.Context, id string) (curso.Curso, error)
		ValidateCapacity(ctx context.Context, cursoID string, cargaHoraria int, excludeDisciplinaID string) (bool, error)
		GetResumo(ctx context.Context, id string) (curso.Resumo, error)
		// WithLock runs fn while holding the write lock of the Curso id.
		WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nd NewDisciplina) (Disciplina, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error)
		GetByID(ctx context.Context, id string) (Disciplina, error)
		GetDetalhe(ctx context.Context, id string) (Detalhe, error)
		Update(ctx context.Context, id string, ud UpdateDisciplina) (Disciplina, error)
		SetAtivo(ctx context.Context, id string, ativo bool) (Disciplina, error)
		Delete(ctx context.Context, ids ...string) error
		ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error)
	}

	Service struct {
		repo     Repository
		cursoSvc CursoService
		validate *validator.Validate
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, cursoSvc CursoService, validate *validator.Validate) *Service {
	return &Service{repo: repo, cursoSvc: cursoSvc, validate: validate}
}

func codigoExistsErr(codigo string) error {
	return core.NewValidationError(ErrCodigoExists, core.FieldError{
		Field: "codigo",
		Error: fmt.Sprintf("Já existe uma disciplina ativa com o código %s", codigo),
	})
}

// ValidateUniqueCodigo reports whether no other active Disciplina uses codigo.
func (svc *Service) ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error) {
	exists, err := svc.repo.CodigoExists(ctx, codigo, excludeID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "checking codigo uniqueness")
	}
	return !exists, nil
}

// check enforces the Disciplina rules on d, the state about to be saved:
// the Curso must exist and, when d is active, the code must be free, the Curso must be active
// and the Curso's total workload must hold d along with its other active Disciplinas.
func (svc *Service) check(ctx context.Context, d Disciplina) error {
	c, err := svc.cursoSvc.GetByID(ctx, d.CursoID)
	if err != nil {
		if pkgerrors.Cause(err) == curso.ErrNotFound {
			return core.NewFieldError("curso", ErrCursoNotFound)
		}
		return pkgerrors.Wrap(err, "finding curso")
	}
	if !d.Ativo {
		return nil
	}

	ok, err := svc.ValidateUniqueCodigo(ctx, d.Codigo, d.ID)
	if err != nil {
		return err
	}
	if !ok {
		return codigoExistsErr(d.Codigo)
	}

	if !c.Ativo {
		return core.NewFieldError("curso", ErrCursoInativo)
	}

	ok, err = svc.cursoSvc.ValidateCapacity(ctx, c.ID, d.CargaHoraria, d.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "validating curso capacity")
	}
	if !ok {
		resumo, err := svc.cursoSvc.GetResumo(ctx, c.ID)
		if err != nil {
			return pkgerrors.Wrap(err, "getting curso resumo")
		}
		soma := resumo.SomaCargaHorariaDisciplinasAtivas + d.CargaHoraria
		if d.ID != "" {
			// the stored version of d may already be counted in the resumo
			if orig, err := svc.repo.GetDisciplina(ctx, d.ID); err == nil && orig.Ativo && orig.CursoID == c.ID {
				soma -= orig.CargaHoraria
			}
		}
		return core.NewValidationError(ErrCapacityExceed, core.FieldError{
			Field: "carga_horaria",
			Error: fmt.Sprintf(
				"A soma das cargas horárias das disciplinas (%d) não pode ultrapassar a carga horária total do curso (%d)",
				soma, c.CargaHorariaTotal,
			),
		})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nd NewDisciplina) (Disciplina, error) {
	if err := nd.Validate(svc.validate); err != nil {
		return Disciplina{}, err
	}
	d := Disciplina{
		Codigo:       nd.Codigo,
		Nome:         nd.Nome,
		CargaHoraria: nd.CargaHoraria,
		CursoID:      nd.CursoID,
		Ativo:        nd.Ativo == nil || *nd.Ativo,
	}

	// the checks and the insert run under the Curso lock, so the Curso cannot change in between
	var created Disciplina
	err := svc.cursoSvc.WithLock(ctx, d.CursoID, func(ctx context.Context) error {
		if err := svc.check(ctx, d); err != nil {
			return err
		}
		d.ID = core.NewID()
		var err error
		if created, err = svc.repo.CreateDisciplina(ctx, d); err != nil {
			return uniqueErr(err, d)
		}
		return nil
	})
	if err != nil {
		return Disciplina{}, err
	}
	return created, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error) {
	filter.Clean()
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryDisciplinas(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Disciplina, error) {
	if !core.IsValidID(id) {
		return Disciplina{}, ErrNotFound
	}
	return svc.repo.GetDisciplina(ctx, id)
}

func (svc *Service) GetDetalhe(ctx context.Context, id string) (Detalhe, error) {
	d, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detalhe{}, err
	}
	c, err := svc.cursoSvc.GetByID(ctx, d.CursoID)
	if err != nil {
		return Detalhe{}, pkgerrors.Wrap(err, "finding curso")
	}
	return Detalhe{Disciplina: d, CursoDetalhes: c}, nil
}

func (svc *Service) Update(ctx context.Context, id string, ud UpdateDisciplina) (Disciplina, error) {
	d, err := svc.GetByID(ctx, id)
	if err != nil {
		return Disciplina{}, err
	}
	if err := ud.Validate(d, svc.validate); err != nil {
		return Disciplina{}, err
	}

	// only the target Curso gains hours, so only its lock is needed
	var updated Disciplina
	err = svc.cursoSvc.WithLock(ctx, ud.CursoID, func(ctx context.Context) error {
		d, err := svc.repo.GetDisciplina(ctx, id)
		if err != nil {
			return err
		}
		d.Codigo = ud.Codigo
		d.Nome = ud.Nome
		d.CargaHoraria = *ud.CargaHoraria
		d.CursoID = ud.CursoID
		if ud.Ativo != nil {
			d.Ativo = *ud.Ativo
		}
		if err := svc.check(ctx, d); err != nil {
			return err
		}
		if updated, err = svc.repo.UpdateDisciplina(ctx, d); err != nil {
			return uniqueErr(err, d)
		}
		return nil
	})
	if err != nil {
		return Disciplina{}, err
	}
	return updated, nil
}

// SetAtivo activates or deactivates a Disciplina. Activation runs the same checks as a creation.
func (svc *Service) SetAtivo(ctx context.Context, id string, ativo bool) (Disciplina, error) {
	return svc.Update(ctx, id, UpdateDisciplina{Ativo: &ativo})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteDisciplinas(ctx, ids...)
}

func uniqueErr(err error, d Disciplina) error {
	if pkgerrors.Cause(err) == ErrCodigoExists {
		return codigoExistsErr(d.Codigo)
	}
	return err
}

package curso

import (
	"github.com/go-playground/validator/v10"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

type Curso struct {
	ID                string  `json:"id"`
	Codigo            string  `json:"codigo"`
	Nome              string  `json:"nome"`
	Descricao         *string `json:"descricao"`
	Ativo             bool    `json:"ativo"`
	CargaHorariaTotal int     `json:"carga_horaria_total"`
}

// Resumo aggregates the active Disciplinas of a Curso.
type Resumo struct {
	TotalDisciplinasAtivas            int `json:"total_disciplinas_ativas"`
	SomaCargaHorariaDisciplinasAtivas int `json:"soma_carga_horaria_disciplinas_ativas"`
}

// Detalhe is a Curso along with its Resumo.
type Detalhe struct {
	Curso
	Resumo
}

// NewCurso contains information needed to create a new Curso.
type NewCurso struct {
	Codigo            string  `json:"codigo" validate:"required,max=50"`
	Nome              string  `json:"nome" validate:"required,max=255"`
	Descricao         *string `json:"descricao"`
	CargaHorariaTotal int     `json:"carga_horaria_total" validate:"required,gt=0"`
	Ativo             *bool   `json:"ativo"`
}

func (nc *NewCurso) Validate(validate *validator.Validate) error {
	nc.Codigo = core.CleanString(nc.Codigo)
	nc.Nome = core.CleanString(nc.Nome)
	nc.Descricao = core.CleanStringPtr(nc.Descricao)
	return validate.Struct(nc)
}

// UpdateCurso defines what information may be provided to modify an existing Curso.
// Blank or missing fields keep their current values; an empty descricao clears it.
type UpdateCurso struct {
	Codigo            string  `json:"codigo" validate:"omitempty,max=50"`
	Nome              string  `json:"nome" validate:"omitempty,max=255"`
	Descricao         *string `json:"descricao"`
	CargaHorariaTotal *int    `json:"carga_horaria_total" validate:"omitempty,gt=0"`
	Ativo             *bool   `json:"ativo"`
}

func (uc *UpdateCurso) Validate(orig Curso, validate *validator.Validate) error {
	if codigo := core.CleanString(uc.Codigo); codigo != "" {
		uc.Codigo = codigo
	} else {
		uc.Codigo = orig.Codigo
	}
	if nome := core.CleanString(uc.Nome); nome != "" {
		uc.Nome = nome
	} else {
		uc.Nome = orig.Nome
	}
	if uc.Descricao != nil {
		uc.Descricao = core.CleanStringPtr(uc.Descricao)
	} else {
		uc.Descricao = orig.Descricao
	}
	if uc.CargaHorariaTotal == nil {
		uc.CargaHorariaTotal = core.IntPtr(orig.CargaHorariaTotal)
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search string
	Codigo string
	Ativo  *bool
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Codigo = core.CleanString(qf.Codigo)
}

// OrderingFields are the fields lists can be ordered by.
var OrderingFields = []string{"codigo", "nome", "carga_horaria_total"}

// DefaultOrdering applies when none is requested.
var DefaultOrdering = []core.DBOrdering{{Field: "codigo", Ascending: true}}

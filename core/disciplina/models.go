package disciplina

import (
	"github.com/go-playground/validator/v10"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
)

type Disciplina struct {
	ID           string `json:"id"`
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	CargaHoraria int    `json:"carga_horaria"`
	CursoID      string `json:"curso"`
	Ativo        bool   `json:"ativo"`
}

// Item is the list representation of a Disciplina.
type Item struct {
	Disciplina
	CursoNome   string `json:"curso_nome"`
	CursoCodigo string `json:"curso_codigo"`
}

// Detalhe is a Disciplina along with its Curso.
type Detalhe struct {
	Disciplina
	CursoDetalhes curso.Curso `json:"curso_detalhes"`
}

// NewDisciplina contains information needed to create a new Disciplina.
type NewDisciplina struct {
	Codigo       string `json:"codigo" validate:"required,max=50"`
	Nome         string `json:"nome" validate:"required,max=255"`
	CargaHoraria int    `json:"carga_horaria" validate:"required,gt=0"`
	CursoID      string `json:"curso" validate:"required"`
	Ativo        *bool  `json:"ativo"`
}

func (nd *NewDisciplina) Validate(validate *validator.Validate) error {
	nd.Codigo = core.CleanString(nd.Codigo)
	nd.Nome = core.CleanString(nd.Nome)
	nd.CursoID = core.CleanString(nd.CursoID, true /* lower */)
	return validate.Struct(nd)
}

// UpdateDisciplina defines what information may be provided to modify an existing Disciplina.
// Blank or missing fields keep their current values.
type UpdateDisciplina struct {
	Codigo       string `json:"codigo" validate:"omitempty,max=50"`
	Nome         string `json:"nome" validate:"omitempty,max=255"`
	CargaHoraria *int   `json:"carga_horaria" validate:"omitempty,gt=0"`
	CursoID      string `json:"curso"`
	Ativo        *bool  `json:"ativo"`
}

func (ud *UpdateDisciplina) Validate(orig Disciplina, validate *validator.Validate) error {
	if codigo := core.CleanString(ud.Codigo); codigo != "" {
		ud.Codigo = codigo
	} else {
		ud.Codigo = orig.Codigo
	}
	if nome := core.CleanString(ud.Nome); nome != "" {
		ud.Nome = nome
	} else {
		ud.Nome = orig.Nome
	}
	if cursoID := core.CleanString(ud.CursoID, true /* lower */); cursoID != "" {
		ud.CursoID = cursoID
	} else {
		ud.CursoID = orig.CursoID
	}
	if ud.CargaHoraria == nil {
		ud.CargaHoraria = core.IntPtr(orig.CargaHoraria)
	}
	return validate.Struct(ud)
}

type QueryFilter struct {
	Search  string
	CursoID string
	Ativo   *bool
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CursoID = core.CleanString(qf.CursoID, true /* lower */)
}

// OrderingFields are the fields lists can be ordered by.
var OrderingFields = []string{"codigo", "nome", "carga_horaria"}

// DefaultOrdering applies when none is requested.
var DefaultOrdering = []core.DBOrdering{{Field: "codigo", Ascending: true}}

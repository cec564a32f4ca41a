package perfil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

// Tipos
const (
	TipoGerente   = "Gerente"
	TipoProfessor = "Professor"

	codigoPrefix = "MAT"
)

var Tipos = []string{TipoGerente, TipoProfessor}

type Perfil struct {
	ID           string    `json:"id"`
	Codigo       string    `json:"codigo"`
	Nome         string    `json:"nome"`
	Tipo         string    `json:"tipo"`
	Email        string    `json:"email"`
	Ativo        bool      `json:"ativo"`
	PasswordHash []byte    `json:"-"`
	DateJoined   time.Time `json:"-"` // UTC
	LastLogin    time.Time `json:"-"` // UTC
}

func (p *Perfil) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Perfil) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

// FullName is what other apps display for the profile.
func (p *Perfil) FullName() string { return p.Nome }

func (p *Perfil) IsGerente() bool   { return p.Tipo == TipoGerente }
func (p *Perfil) IsProfessor() bool { return p.Tipo == TipoProfessor }

// FormatCodigo builds a profile code: MAT.<ano>.<seq>.
func FormatCodigo(ano, seq int) string {
	return fmt.Sprintf("%s.%d.%d", codigoPrefix, ano, seq)
}

// ParseCodigo extracts the year and sequence of a code built by FormatCodigo.
func ParseCodigo(codigo string) (ano, seq int, ok bool) {
	parts := strings.Split(codigo, ".")
	if len(parts) != 3 || parts[0] != codigoPrefix {
		return 0, 0, false
	}
	ano, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return 0, 0, false
	}
	return ano, seq, true
}

// NewPerfil contains information needed to create a new Perfil.
type NewPerfil struct {
	Nome     string `json:"nome" validate:"required,max=255"`
	Tipo     string `json:"tipo" validate:"required,oneof=Gerente Professor"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Password string `json:"password" validate:"required"`
	Ativo    *bool  `json:"ativo"`
}

func (np *NewPerfil) Validate(validate *validator.Validate) error {
	np.Nome = core.CleanString(np.Nome)
	np.Tipo = core.CleanString(np.Tipo)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return validate.Struct(np)
}

// UpdatePerfil defines what information may be provided to modify an existing Perfil.
// Blank fields keep their current values.
type UpdatePerfil struct {
	Nome     string `json:"nome" validate:"omitempty,max=255"`
	Tipo     string `json:"tipo" validate:"omitempty,oneof=Gerente Professor"`
	Email    string `json:"email" validate:"omitempty,max=254,email"`
	Password string `json:"password"`
	Ativo    *bool  `json:"ativo"`
}

func (up *UpdatePerfil) Validate(orig Perfil, validate *validator.Validate) error {
	if nome := core.CleanString(up.Nome); nome != "" {
		up.Nome = nome
	} else {
		up.Nome = orig.Nome
	}
	if tipo := core.CleanString(up.Tipo); tipo != "" {
		up.Tipo = tipo
	} else {
		up.Tipo = orig.Tipo
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}
	return validate.Struct(up)
}

type ResetPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search string
	Tipo   string
	Ativo  *bool
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Tipo == "" && qf.Ativo == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tipo = core.CleanString(qf.Tipo)
}

// OrderingFields are the fields lists can be ordered by.
var OrderingFields = []string{"email", "tipo", "ativo", "nome", "codigo"}

// DefaultOrdering applies when none is requested.
var DefaultOrdering = []core.DBOrdering{{Field: "email", Ascending: true}}

package perfil

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestValidator() *validator.Validate {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(nopLogger{})
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab#1", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd #1234", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "Abcdefg1234", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg#1234", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "Abcdefg#xyz", wantTag: pwdComplexityTag},
		{name: "similar to name", pwd: "Fulano#2025", wantTag: pwdAttrSimTag},
		{name: "similar to email", pwd: "Fulano.Silva1!", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "P@$$w0rd", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := NewPerfil{
				Nome:     "Fulano",
				Tipo:     TipoProfessor,
				Email:    "fulano.silva@example.com",
				Password: tt.pwd,
			}
			err := np.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validator.ValidationErrors; got %T", err)
			require.Len(t, vErrs, 1)
			assert.Equal(t, "password", vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestNewPerfilValidate(t *testing.T) {
	validate := newTestValidator()

	np := NewPerfil{
		Nome:     "  Ana  ",
		Tipo:     "Diretor",
		Email:    " ANA@Example.COM ",
		Password: "Tr0ub4dor&3x",
	}
	err := np.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, "Ana", np.Nome)
	assert.Equal(t, "ana@example.com", np.Email)

	vErrs := err.(validator.ValidationErrors)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "tipo", vErrs[0].Field())
	assert.Equal(t, "oneof", vErrs[0].Tag())
}

func TestUpdatePerfilValidate(t *testing.T) {
	validate := newTestValidator()
	orig := Perfil{Nome: "Ana", Tipo: TipoProfessor, Email: "ana@example.com"}

	up := UpdatePerfil{Nome: " ", Email: "NOVA@example.com"}
	require.NoError(t, up.Validate(orig, validate))
	assert.Equal(t, "Ana", up.Nome)
	assert.Equal(t, TipoProfessor, up.Tipo)
	assert.Equal(t, "nova@example.com", up.Email)

	up = UpdatePerfil{Password: "123"}
	assert.Error(t, up.Validate(orig, validate))
}

func TestResetPasswordValidate(t *testing.T) {
	validate := newTestValidator()

	rp := ResetPassword{Token: "t", UID: "u", Password: "Tr0ub4dor&3x", PasswordConfirm: "other"}
	err := rp.Validate(validate)
	require.Error(t, err)
	vErrs := err.(validator.ValidationErrors)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "password_confirm", vErrs[0].Field())

	rp.PasswordConfirm = rp.Password
	assert.NoError(t, rp.Validate(validate))
}

package perfil

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

var (
	// errors
	ErrNotFound           = errors.New("perfil não encontrado")
	ErrEmailExists        = errors.New("já existe um perfil com este email")
	ErrCodigoExists       = errors.New("já existe um perfil ativo com este código")
	ErrInvalidCredentials = errors.New("nenhuma conta ativa encontrada com as credenciais informadas")
	ErrInvalidValue       = errors.New("valor inválido")
)

type (
	// GetFilter selects a single Perfil. Only one field is expected to be set.
	GetFilter struct {
		ID    string
		Email string
	}

	Repository interface {
		// NextCodigoSeq atomically increments and returns the code sequence of the given year.
		NextCodigoSeq(ctx context.Context, ano int) (int, error)
		// CodigoExists looks for an active Perfil with the given code, other than excludeID.
		CodigoExists(ctx context.Context, codigo, excludeID string) (bool, error)
		EmailExists(ctx context.Context, email, excludeID string) (bool, error)
		CreatePerfil(ctx context.Context, p Perfil) (Perfil, error)
		GetPerfil(ctx context.Context, filter GetFilter) (Perfil, error)
		// QueryPerfis applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Perfil.Email, Perfil.Nome or Perfil.Codigo.
		QueryPerfis(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Perfil, error)
		UpdatePerfil(ctx context.Context, p Perfil) (Perfil, error)
		DeletePerfis(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, np NewPerfil) (Perfil, error)
		GenerateCodigo(ctx context.Context, ano int) (string, error)
		ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Perfil, error)
		GetByID(ctx context.Context, id string) (Perfil, error)
		GetByEmail(ctx context.Context, email string) (Perfil, error)
		Update(ctx context.Context, id string, up UpdatePerfil) (Perfil, error)
		SetAtivo(ctx context.Context, id string, ativo bool) (Perfil, error)
		Delete(ctx context.Context, ids ...string) error
		Authenticate(ctx context.Context, email, pwd string) (Perfil, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPassword) error
		PasswordResetToken(p Perfil) (string, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   tokenGenerator
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
		tokens: tokenGenerator{
			secretKey: conf.SecretKey,
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func (svc *Service) checkEmail(ctx context.Context, email, excludeID string) error {
	exists, err := svc.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return core.NewFieldError("email", ErrEmailExists)
	}
	return nil
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

func codigoExistsErr(codigo string) error {
	return core.NewValidationError(ErrCodigoExists, core.FieldError{
		Field: "codigo",
		Error: fmt.Sprintf("Já existe um perfil ativo com o código %s", codigo),
	})
}

// ValidateUniqueCodigo reports whether no other active Perfil uses codigo.
func (svc *Service) ValidateUniqueCodigo(ctx context.Context, codigo, excludeID string) (bool, error) {
	exists, err := svc.repo.CodigoExists(ctx, codigo, excludeID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "checking codigo uniqueness")
	}
	return !exists, nil
}

// GenerateCodigo reserves the next code of the given year: MAT.<ano>.<n>.
// Numbers are handed out by the repository's atomic counter, so concurrent calls never share one.
func (svc *Service) GenerateCodigo(ctx context.Context, ano int) (string, error) {
	seq, err := svc.repo.NextCodigoSeq(ctx, ano)
	if err != nil {
		return "", pkgerrors.Wrap(err, "incrementing codigo sequence")
	}
	return FormatCodigo(ano, seq), nil
}

func (svc *Service) Create(ctx context.Context, np NewPerfil) (Perfil, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Perfil{}, err
	}
	if err := svc.checkEmail(ctx, np.Email, ""); err != nil {
		return Perfil{}, err
	}

	now := NowFunc().UTC()
	codigo, err := svc.GenerateCodigo(ctx, now.Year())
	if err != nil {
		return Perfil{}, err
	}
	p := Perfil{
		ID:         core.NewID(),
		Codigo:     codigo,
		Nome:       np.Nome,
		Tipo:       np.Tipo,
		Email:      np.Email,
		Ativo:      np.Ativo == nil || *np.Ativo,
		DateJoined: now,
	}
	if p.Ativo {
		if err := svc.checkCodigo(ctx, p.Codigo, ""); err != nil {
			return Perfil{}, err
		}
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Perfil{}, pkgerrors.Wrap(err, "hashing password")
	}

	created, err := svc.repo.CreatePerfil(ctx, p)
	if err != nil {
		return Perfil{}, uniqueErr(err, p)
	}
	svc.sendWelcomeMail(created)
	return created, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Perfil, error) {
	filter.Clean()
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryPerfis(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Perfil, error) {
	if !core.IsValidID(id) {
		return Perfil{}, ErrNotFound
	}
	return svc.repo.GetPerfil(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Perfil, error) {
	return svc.repo.GetPerfil(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePerfil) (Perfil, error) {
	p, err := svc.GetByID(ctx, id)
	if err != nil {
		return Perfil{}, err
	}
	if err := up.Validate(p, svc.validate); err != nil {
		return Perfil{}, err
	}
	if up.Email != p.Email {
		if err := svc.checkEmail(ctx, up.Email, p.ID); err != nil {
			return Perfil{}, err
		}
	}

	ativo := p.Ativo
	if up.Ativo != nil {
		ativo = *up.Ativo
	}
	if ativo && !p.Ativo {
		if err := svc.checkCodigo(ctx, p.Codigo, p.ID); err != nil {
			return Perfil{}, err
		}
	}

	p.Nome = up.Nome
	p.Tipo = up.Tipo
	p.Email = up.Email
	p.Ativo = ativo
	if up.Password != "" {
		if err := p.SetPassword(up.Password); err != nil {
			return Perfil{}, pkgerrors.Wrap(err, "hashing password")
		}
	}
	updated, err := svc.repo.UpdatePerfil(ctx, p)
	if err != nil {
		return Perfil{}, uniqueErr(err, p)
	}
	return updated, nil
}

// SetAtivo activates or deactivates a Perfil. Activation checks that the code is not in use.
func (svc *Service) SetAtivo(ctx context.Context, id string, ativo bool) (Perfil, error) {
	return svc.Update(ctx, id, UpdatePerfil{Ativo: &ativo})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePerfis(ctx, ids...)
}

// Authenticate checks the credentials of an active Perfil and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Perfil, error) {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Perfil{}, ErrInvalidCredentials
		}
		return Perfil{}, pkgerrors.Wrap(err, "finding perfil by email")
	}
	if err := p.CheckPassword(pwd); err != nil || !p.Ativo {
		return Perfil{}, ErrInvalidCredentials
	}

	p.LastLogin = NowFunc().UTC()
	p, err = svc.repo.UpdatePerfil(ctx, p)
	return p, pkgerrors.Wrap(err, "setting last login")
}

// RequestPasswordReset emails a reset link to an active Perfil. Unknown emails return ErrNotFound.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !p.Ativo {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(p)
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	if err := rp.Validate(svc.validate); err != nil {
		return err
	}

	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewFieldError("uid", ErrInvalidValue)
	}
	p, err := svc.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return core.NewFieldError("uid", ErrInvalidValue)
		}
		return pkgerrors.Wrap(err, "finding perfil by ID")
	}
	if err := svc.tokens.verifyToken(p, rp.Token); err != nil {
		return core.NewFieldError("token", ErrInvalidValue)
	}

	if err := p.SetPassword(rp.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdatePerfil(ctx, p)
	return pkgerrors.Wrap(err, "saving new password")
}

// PasswordResetToken makes a reset token for p.
func (svc *Service) PasswordResetToken(p Perfil) (string, error) {
	return svc.tokens.makeToken(p)
}

// uniqueErr turns the repository's uniqueness errors into field errors.
func uniqueErr(err error, p Perfil) error {
	switch pkgerrors.Cause(err) {
	case ErrEmailExists:
		return core.NewFieldError("email", ErrEmailExists)
	case ErrCodigoExists:
		return codigoExistsErr(p.Codigo)
	default:
		return err
	}
}

func (svc *Service) sendWelcomeMail(p Perfil) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.Nome, Address: p.Email}},
		Subject:      "Bem-vindo(a)",
		TemplateName: "welcome",
		TemplateData: p,
	})
}

func (svc *Service) sendPasswordResetMail(p Perfil) {
	token, err := svc.tokens.makeToken(p)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("making password reset token: %v", err), err, p)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.Nome, Address: p.Email}},
		Subject:      "Redefinição de senha",
		TemplateName: "password_reset",
		TemplateData: struct {
			Nome  string
			UID   string
			Token string
		}{Nome: p.Nome, UID: EncodeUID(p), Token: token},
	})
}

// ServiceMock sends password reset emails synchronously.
type ServiceMock struct {
	*Service
}

func NewServiceMock(repo Repository, mailSvc core.EmailService, validate *validator.Validate, logger core.Logger, conf *core.Config) *ServiceMock {
	return &ServiceMock{Service: NewService(repo, mailSvc, validate, logger, conf)}
}

func (svc *ServiceMock) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !p.Ativo {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(p)
	return nil
}

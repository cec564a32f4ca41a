package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

type seedPerfil struct {
	nome, tipo, email, password string
}

var (
	seedPerfis = []seedPerfil{
		{nome: "Administrador do Sistema", tipo: perfil.TipoGerente, email: "admin@example.com", password: "admin123"},
		{nome: "Professor Exemplo", tipo: perfil.TipoProfessor, email: "professor@example.com", password: "prof123"},
	}

	seedCurso = curso.NewCurso{
		Codigo:            "ADS2025",
		Nome:              "Análise e Desenvolvimento de Sistemas",
		Descricao:         core.StringPtr("Curso superior de tecnologia em ADS"),
		CargaHorariaTotal: 2400,
	}

	seedDisciplinas = []disciplina.NewDisciplina{
		{Codigo: "BD101", Nome: "Banco de Dados I", CargaHoraria: 80},
		{Codigo: "PROG101", Nome: "Programação I", CargaHoraria: 120},
		{Codigo: "WEB101", Nome: "Desenvolvimento Web I", CargaHoraria: 100},
	}
)

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the initial profiles, course and disciplines. Existing records are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cli.seed(context.Background())
		},
	}
}

func (cli *commandLine) seed(ctx context.Context) error {
	cli.printf("Criando dados iniciais...\n")

	for _, sp := range seedPerfis {
		if err := cli.seedPerfil(ctx, sp); err != nil {
			return err
		}
	}
	if err := cli.seedCurso(ctx); err != nil {
		return err
	}

	cli.printf("\nDados iniciais criados com sucesso!\n")
	cli.printf("Credenciais de acesso:\n")
	for _, sp := range seedPerfis {
		cli.printf("  %s: %s / %s\n", sp.tipo, sp.email, sp.password)
	}
	return nil
}

// seedPerfil writes through the repository: the well-known seed passwords do not pass the password policy.
func (cli *commandLine) seedPerfil(ctx context.Context, sp seedPerfil) error {
	_, err := cli.perfilRepo.GetPerfil(ctx, perfil.GetFilter{Email: sp.email})
	if err == nil {
		cli.printf("Perfil %s já existe\n", sp.email)
		return nil
	}
	if err != perfil.ErrNotFound {
		return err
	}

	now := perfil.NowFunc().UTC()
	codigo, err := cli.perfilSvc.GenerateCodigo(ctx, now.Year())
	if err != nil {
		return err
	}
	p := perfil.Perfil{
		ID:         core.NewID(),
		Codigo:     codigo,
		Nome:       sp.nome,
		Tipo:       sp.tipo,
		Email:      sp.email,
		Ativo:      true,
		DateJoined: now,
	}
	if err = p.SetPassword(sp.password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if p, err = cli.perfilRepo.CreatePerfil(ctx, p); err != nil {
		return errors.Wrapf(err, "creating perfil %s", sp.email)
	}
	cli.printf("Perfil %s criado: %s - %s\n", p.Tipo, p.Codigo, p.Email)
	return nil
}

func (cli *commandLine) seedCurso(ctx context.Context) error {
	found, err := cli.cursoSvc.Query(ctx, curso.QueryFilter{Codigo: seedCurso.Codigo})
	if err != nil {
		return err
	}
	if len(found) > 0 {
		cli.printf("Curso %s já existe\n", seedCurso.Codigo)
		return nil
	}

	c, err := cli.cursoSvc.Create(ctx, seedCurso)
	if err != nil {
		return errors.Wrapf(err, "creating curso %s", seedCurso.Codigo)
	}
	cli.printf("Curso criado: %s - %s\n", c.Codigo, c.Nome)

	for _, nd := range seedDisciplinas {
		existing, err := cli.disciplinaSvc.Query(ctx, disciplina.QueryFilter{Search: nd.Codigo})
		if err != nil {
			return err
		}
		if containsDisciplina(existing, nd.Codigo) {
			continue
		}
		nd.CursoID = c.ID
		d, err := cli.disciplinaSvc.Create(ctx, nd)
		if err != nil {
			return errors.Wrapf(err, "creating disciplina %s", nd.Codigo)
		}
		cli.printf("Disciplina criada: %s - %s\n", d.Codigo, d.Nome)
	}
	return nil
}

func containsDisciplina(items []disciplina.Item, codigo string) bool {
	for _, item := range items {
		if item.Codigo == codigo {
			return true
		}
	}
	return false
}

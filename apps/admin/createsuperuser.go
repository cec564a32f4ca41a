package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

func (cli *commandLine) createSuperuserCmd() *cobra.Command {
	var email, nome string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active Gerente, or promote the profile holding the email. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if core.CleanString(email) == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			p, err := cli.createSuperuser(email, nome, pwd)
			if err != nil {
				return err
			}
			cli.printf("Gerente %s (%s) is ready.\n", p.Codigo, p.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The profile's email")
	cmd.Flags().StringVar(&nome, "nome", "", "The profile's name (defaults to the email on creation)")
	return cmd
}

// createSuperuser updates or creates an active Gerente.
func (cli *commandLine) createSuperuser(email, nome, pwd string) (perfil.Perfil, error) {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	nome = core.CleanString(nome)

	p, err := cli.perfilRepo.GetPerfil(ctx, perfil.GetFilter{Email: email})
	if err != nil {
		if err != perfil.ErrNotFound {
			return perfil.Perfil{}, err
		}
		if nome == "" {
			nome = email
		}
		return cli.perfilSvc.Create(ctx, perfil.NewPerfil{
			Nome:     nome,
			Tipo:     perfil.TipoGerente,
			Email:    email,
			Password: pwd,
			Ativo:    core.BoolPtr(true),
		})
	}

	return cli.perfilSvc.Update(ctx, p.ID, perfil.UpdatePerfil{
		Nome:     nome,
		Tipo:     perfil.TipoGerente,
		Password: pwd,
		Ativo:    core.BoolPtr(true),
	})
}

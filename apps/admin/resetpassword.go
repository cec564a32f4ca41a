package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a profile's password. The password is prompted next.",
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
			return cli.resetPassword(email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The profile's email")
	return cmd
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	p, err := cli.perfilRepo.GetPerfil(ctx, perfil.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if err := p.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.perfilRepo.UpdatePerfil(ctx, p); err != nil {
		return err
	}
	return nil
}

package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
)

var (
	registerUsername string
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the service. Accounts are only needed for
admin operations; asking and answering are open to everyone.

Examples:
  openfloor register --username alice --email alice@example.com`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Account username (required)")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Account email (required)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Account password (or set OPENFLOOR_PASSWORD)")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	password := registerPassword
	if password == "" {
		password = os.Getenv("OPENFLOOR_PASSWORD")
	}
	if password == "" {
		return printer.Error(
			"no password provided",
			"A password is required to create an account.",
			[]string{"OPENFLOOR_PASSWORD=<password> openfloor register --username alice --email alice@example.com"},
		)
	}

	client, err := newRESTClient()
	if err != nil {
		return err
	}

	if err := client.Register(context.Background(), registerUsername, registerEmail, password); err != nil {
		return printer.Error(
			"registration failed",
			err.Error(),
			[]string{"The username may already be taken; try another one."},
		)
	}

	printer.Success("account %s created\n", registerUsername)
	printer.Info("Log in to get a token:\n  openfloor login --username %s --save\n", registerUsername)
	return nil
}

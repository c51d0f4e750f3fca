package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfloor/openfloor/internal/config"
	"github.com/openfloor/openfloor/internal/printer"
)

var (
	loginUsername string
	loginPassword string
	loginSave     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an access token for admin operations",
	Long: `Log in and obtain a bearer token for the admin operations
(status changes and answer deletion).

The password can also be supplied via the OPENFLOOR_PASSWORD
environment variable to keep it out of shell history.

Examples:
  # Print the token
  openfloor login --username alice --password s3cret

  # Save the token into openfloor.yml for later commands
  openfloor login --username alice --save`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (or set OPENFLOOR_PASSWORD)")
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "Write the token into the config file")
	loginCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		password = os.Getenv("OPENFLOOR_PASSWORD")
	}
	if password == "" {
		return printer.Error(
			"no password provided",
			"A password is required to log in.",
			[]string{
				"Pass it as a flag:\n  openfloor login --username alice --password <password>",
				"Or via the environment:\n  OPENFLOOR_PASSWORD=<password> openfloor login --username alice",
			},
		)
	}

	client, err := newRESTClient()
	if err != nil {
		return err
	}

	token, err := client.Login(context.Background(), loginUsername, password)
	if err != nil {
		return printer.Error(
			"login failed",
			err.Error(),
			[]string{"Check the username and password, or register first:\n  openfloor register --username alice"},
		)
	}

	if loginSave {
		if err := saveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		printer.Success("logged in as %s, token saved to %s\n", loginUsername, configPath())
		return nil
	}

	printer.Success("logged in as %s\n", loginUsername)
	printer.Info("Token (pass via OPENFLOOR_TOKEN or save with --save):\n%s\n", token)
	return nil
}

// saveToken writes the token into the config file, creating a minimal
// client section when no file exists yet.
func saveToken(token string) error {
	path := configPath()

	cfg := &config.Config{Version: "1.0"}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("existing config is not valid YAML: %w", err)
		}
	}

	if cfg.Client == nil {
		serverURL := flagServerURL
		if serverURL == "" {
			serverURL = os.Getenv("OPENFLOOR_SERVER_URL")
		}
		cfg.Client = &config.ClientConfig{ServerURL: serverURL}
	}
	cfg.Client.Token = token

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Token inside, keep it owner-readable.
	return os.WriteFile(path, data, 0600)
}

package commands

import (
	"os"

	"github.com/openfloor/openfloor/internal/config"
	"github.com/openfloor/openfloor/internal/printer"
	"github.com/openfloor/openfloor/internal/restapi"
	"github.com/openfloor/openfloor/internal/sync"
)

// defaultConfigName is looked up in the working directory when neither
// --config nor OPENFLOOR_CONFIG points elsewhere.
const defaultConfigName = "openfloor.yml"

// configPath resolves where the client configuration lives.
func configPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	if env := os.Getenv("OPENFLOOR_CONFIG"); env != "" {
		return env
	}
	return defaultConfigName
}

// clientSettings resolves the effective client configuration from the
// config file, environment overrides and command-line flags, in that
// order of increasing precedence.
func clientSettings() (*config.ClientConfig, error) {
	cfg, err := config.LoadOrEnv(configPath())
	if err != nil && flagServerURL == "" {
		return nil, printer.Error(
			"no service configured",
			"Could not determine which openfloor service to talk to.",
			[]string{
				"Pass the service URL directly:\n  openfloor questions --server http://localhost:8000",
				"Or create openfloor.yml:\n  version: \"1.0\"\n  client:\n    server_url: \"http://localhost:8000\"",
			},
		)
	}

	settings := &config.ClientConfig{}
	if err == nil && cfg.Client != nil {
		*settings = *cfg.Client
	}

	if flagServerURL != "" {
		settings.ServerURL = flagServerURL
	}
	if flagPushURL != "" {
		settings.PushURL = flagPushURL
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// newRESTClient builds a one-shot REST client for commands that do not
// need the live snapshot (ask, answer, admin operations).
func newRESTClient() (*restapi.Client, error) {
	settings, err := clientSettings()
	if err != nil {
		return nil, err
	}

	client, err := restapi.NewClient(settings.ServerURL, restapi.WithTimeout(settings.RequestTimeout.Std()))
	if err != nil {
		return nil, err
	}
	if settings.Token != "" {
		client.SetToken(settings.Token)
	}

	return client, nil
}

// newForumSession builds a full sync session for commands that follow
// the floor live (watch).
func newForumSession() (*sync.Session, error) {
	settings, err := clientSettings()
	if err != nil {
		return nil, err
	}

	session, err := sync.NewSession(settings.ServerURL, settings.PushURL,
		sync.WithClientOptions(restapi.WithTimeout(settings.RequestTimeout.Std())),
		sync.WithDispatcherOptions(sync.WithConfirmWindow(settings.ConfirmWindow.Std())))
	if err != nil {
		return nil, err
	}
	if settings.Token != "" {
		session.Client().SetToken(settings.Token)
	}

	return session, nil
}

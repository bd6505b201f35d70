package main

import (
	"flag"
	"fmt"

	"github.com/mcdev12/werewolf/go/clients/werewolf_client"
	"github.com/mcdev12/werewolf/go/internal/config"
	"github.com/rs/zerolog"
)

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.baseURL, "url", "", "game server base URL (overrides WEREWOLF_URL)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

// load reads the config file and environment, then applies flag overrides and
// the log level.
func (f *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg, nil
}

func newClient(cfg *config.Config) *werewolf_client.WerewolfClient {
	client := werewolf_client.NewWerewolfClient(cfg.Server.BaseURL)
	client.SetTimeout(cfg.Server.Timeout)
	return client
}

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pradeeshk/bus-tracker/internal/app"
	"github.com/pradeeshk/bus-tracker/internal/credential"
	"github.com/pradeeshk/bus-tracker/internal/logging"
	"github.com/pradeeshk/bus-tracker/internal/model"
	"github.com/pradeeshk/bus-tracker/internal/remote"
	"github.com/pradeeshk/bus-tracker/internal/store"
	"github.com/pradeeshk/bus-tracker/internal/stream"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	busNo := flag.String("bus", "", "bus number to track (overrides config)")
	setToken := flag.String("set-token", "", "store the API bearer token in the system keyring and exit")
	clearToken := flag.Bool("clear-token", false, "remove the stored API bearer token and exit")
	initConfig := flag.Bool("init-config", false, "write the config file with current defaults and exit")
	flag.Parse()

	var err error
	switch {
	case *setToken != "":
		err = runSetToken(*setToken)
	case *clearToken:
		err = runClearToken()
	case *initConfig:
		err = runInitConfig(*configPath, *busNo)
	default:
		err = run(*configPath, *busNo)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bustracker: %v\n", err)
		os.Exit(1)
	}
}

func runSetToken(token string) error {
	if err := credential.Set(credential.TokenKey, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	fmt.Println("token stored")
	return nil
}

func runClearToken() error {
	if err := credential.Delete(credential.TokenKey); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	fmt.Println("token cleared")
	return nil
}

// runInitConfig materializes the effective configuration on disk so
// users have a file to edit instead of guessing at keys.
func runInitConfig(configPath, busNo string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if busNo != "" {
		cfg.Tracking.BusNo = busNo
	}

	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Println("config written to", configPath)
	return nil
}

func run(configPath, busNo string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if busNo != "" {
		cfg.Tracking.BusNo = busNo
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	s, err := store.NewSQLiteStore(cfg.Cache.DBPath, cfg.Cache.RetentionLimit)
	if err != nil {
		return fmt.Errorf("opening notification cache: %w", err)
	}
	defer s.Close()

	token := credential.Token()
	rc := remote.NewClient(cfg.Server.APIBaseURL, token)
	sc := stream.NewClient(cfg.StreamURL(), log)
	defer sc.Unsubscribe()

	log.Info("starting",
		zap.String("api", cfg.Server.APIBaseURL),
		zap.String("bus", cfg.Tracking.BusNo),
		zap.String("role", cfg.Profile.Role),
	)

	p := tea.NewProgram(
		app.New(cfg, token, s, rc, sc, log),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	return nil
}

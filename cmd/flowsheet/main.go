package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"

	"flowsheet/internal/app"
	"flowsheet/internal/config"
	"flowsheet/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", app.AppName, app.AppVersion, runtime.Version())
		return
	}

	if err := run(*configPath); err != nil {
		logger.NewConsoleLogger(os.Stderr, zerolog.InfoLevel).Error("main", err, map[string]interface{}{
			"config": *configPath,
		})
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := app.New(app.Options{
		Config:     cfg,
		ConfigPath: configPath,
	})
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	stop := application.Lifecycle().Listen()
	defer stop()

	return application.Run()
}

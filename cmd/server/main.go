// Command server runs the newsdesk admin dashboard.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/simp-lee/newsdesk/internal/app"
	"github.com/simp-lee/newsdesk/internal/config"
)

// defaultConfig is used when neither -config nor NEWSDESK_CONFIG is set.
const defaultConfig = "configs/config.yaml"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "newsdesk:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfgFile := fs.String("config", configFromEnv(), "path to configuration file (env NEWSDESK_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return fmt.Errorf("load config %s: %w", *cfgFile, err)
	}

	dashboard, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("start dashboard: %w", err)
	}
	return dashboard.Run()
}

func configFromEnv() string {
	if p := os.Getenv("NEWSDESK_CONFIG"); p != "" {
		return p
	}
	return defaultConfig
}

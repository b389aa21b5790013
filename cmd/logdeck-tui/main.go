package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/orthodoxmetrics/logdeck/internal/escalate"
	"github.com/orthodoxmetrics/logdeck/internal/logstore"
	"github.com/orthodoxmetrics/logdeck/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var configPath string
	var storeURL string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logdeck/tui.yml)")
	flag.StringVar(&storeURL, "store-url", "", "override the log store base URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Logdeck TUI - Log Console Client\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Built:   %s\n", buildTime)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if storeURL != "" {
		cfg.StoreURL = strings.TrimRight(storeURL, "/")
	}

	// The terminal owns stdout; anything zerolog would print garbles the UI.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	store := logstore.NewClient(cfg.StoreURL)
	escalator := escalate.NewClient(cfg.StoreURL)

	streamURL := ""
	if cfg.UseStream {
		streamURL = cfg.StoreURL
	}

	consoles := tui.NewConsolesPage(tui.Options{
		Store:            store,
		Escalator:        escalator,
		RealTimeInterval: cfg.RealTimeInterval,
		CriticalInterval: cfg.CriticalInterval,
		SystemInterval:   cfg.SystemInterval,
		MaxLogs:          cfg.MaxLogs,
		StreamURL:        streamURL,
	})

	p := tea.NewProgram(consoles, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

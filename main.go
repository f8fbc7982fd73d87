// ABOUTME: Entry point for the revdeck workspace
// ABOUTME: Routes to the TUI, the web dashboard, or maintenance commands
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/calegray/revdeck/db"
	"github.com/calegray/revdeck/viz"
	"github.com/calegray/revdeck/web"
	"github.com/calegray/revdeck/workspace"
)

const version = "0.2.0"

func main() {
	// A missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/revdeck/revdeck.db)")
	port := flag.Int("port", 8080, "Web dashboard port (use with 'web')")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("revdeck version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	command := "tui"
	if len(args) > 0 {
		command = args[0]
	}

	store, err := db.Open(databasePath(*dbPath))
	if err != nil {
		log.Fatal("failed to open store", "err", err)
	}
	defer store.Close()

	switch command {
	case "tui":
		model := workspace.New(store, exportDir())
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			log.Fatal("workspace exited", "err", err)
		}

	case "web":
		server, err := web.NewServer(store)
		if err != nil {
			log.Fatal("failed to build server", "err", err)
		}
		if err := server.Start(*port); err != nil {
			log.Fatal("web dashboard failed", "err", err)
		}

	case "seed":
		if err := store.Seed(context.Background()); err != nil {
			log.Fatal("seed failed", "err", err)
		}
		fmt.Println("Demo dataset loaded")

	case "stats":
		stats, err := store.Stats(context.Background())
		if err != nil {
			log.Fatal("stats failed", "err", err)
		}
		fmt.Print(viz.RenderDashboard(stats))

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func databasePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("REVDECK_DB"); env != "" {
		return env
	}
	return filepath.Join(xdg.DataHome, "revdeck", "revdeck.db")
}

func exportDir() string {
	if env := os.Getenv("REVDECK_EXPORT_DIR"); env != "" {
		return env
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

func printUsage() {
	fmt.Printf(`revdeck v%s - relationship workspace

USAGE:
  revdeck [global flags] <command>

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/revdeck/revdeck.db)
  --port <n>             Web dashboard port (default: 8080)

COMMANDS:
  tui                    Open the workspace (default)
  web                    Serve the read-only dashboard
  seed                   Load a demo dataset into an empty store
  stats                  Print the pipeline overview

ENVIRONMENT:
  REVDECK_DB             Database path (flag wins)
  REVDECK_EXPORT_DIR     Directory CSV exports land in (default: cwd)

EXAMPLES:
  # Open the workspace against a scratch database
  revdeck --db-path /tmp/demo.db seed
  revdeck --db-path /tmp/demo.db

  # Serve the dashboard on another port
  revdeck --port 9090 web
`, version)
}

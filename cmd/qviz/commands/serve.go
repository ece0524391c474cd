package commands

import (
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/server"
	"github.com/teranos/QVIZ/viz"
)

// ServeCmd starts the QVIZ console server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the QVIZ server for live graph visualization",
	Long: `Launch the QVIZ console server. Connected consoles receive scene frames
over WebSocket and send interaction intents (hover, focus, search, filter,
zoom, drag) back. Specs can be loaded over the wire, via the HTTP API, or
pre-loaded from a file with --spec.`,
	RunE: runServe,
}

var (
	servePort      int
	serveDBPath    string
	serveSpecPath  string
	serveWatchSpec bool
	serveNoBrowser bool
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Custom database path (overrides config)")
	ServeCmd.Flags().StringVar(&serveSpecPath, "spec", "", "Pre-load a spec file into the console")
	ServeCmd.Flags().BoolVar(&serveWatchSpec, "watch", false, "Reload the --spec file on change")
	ServeCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", true, "Disable automatic browser opening")
}

func runServe(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	port := servePort
	if port == 0 {
		port = cfg.GetServerPort()
	}

	database, err := openDatabase(serveDBPath)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	dbPath := resolveDatabasePath(serveDBPath)
	printStartupBanner(verbosity, dbPath)

	viz.SetCompactBudget(time.Duration(cfg.Layout.CompactBudgetMs) * time.Millisecond)

	watcher := startConfigWatcher()

	srv := server.NewServer(database, dbPath, cfg, watcher)
	server.SetDefaultServer(srv)

	if serveSpecPath != "" {
		if err := loadSpecFile(srv, serveSpecPath); err != nil {
			return err
		}
		pterm.Info.Printf("Pre-loaded spec: %s\n", serveSpecPath)

		if serveWatchSpec {
			stopWatch, err := watchSpecFile(srv, serveSpecPath)
			if err != nil {
				return errors.Wrap(err, "failed to watch spec file")
			}
			defer stopWatch()
			pterm.Info.Printf("Watching %s for changes\n", serveSpecPath)
		}
	} else if serveWatchSpec {
		return errors.New("--watch requires --spec")
	}

	var browserFunc func(string)
	if !serveNoBrowser {
		browserCommand := cfg.Server.BrowserCommand
		browserFunc = func(url string) { openBrowser(browserCommand, url) }
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port, browserFunc)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

// startConfigWatcher watches the user config for live reload. A missing
// config file is not an error; the server just runs without live reload.
func startConfigWatcher() *am.ConfigWatcher {
	configPath := am.GetUIConfigPath()
	if configPath == "" {
		return nil
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}

	watcher, err := am.NewConfigWatcher(configPath)
	if err != nil {
		logger.Logger.Warnw("Config live reload disabled", "error", err)
		return nil
	}
	am.SetGlobalWatcher(watcher)
	watcher.Start()
	return watcher
}

// loadSpecFile reads and decodes a spec file and pushes it to all sessions.
func loadSpecFile(srv *server.QVIZServer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read spec file %s", path)
	}
	spec, err := graph.DecodeSpec(data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse spec file %s", path)
	}
	srv.SetSpec(spec)
	return nil
}

// watchSpecFile reloads the spec into the running server whenever the file
// is rewritten. Parse failures keep the previous spec on screen.
func watchSpecFile(srv *server.QVIZServer, path string) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := loadSpecFile(srv, path); err != nil {
					logger.Logger.Warnw("Spec reload failed, keeping previous spec",
						"path", path, "error", err)
					continue
				}
				logger.Logger.Infow("Spec reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Logger.Warnw("Spec watch error", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

// openBrowser opens the URL with the configured browser command, falling
// back to the platform default opener.
func openBrowser(browserCommand, url string) {
	if browserCommand != "" {
		parts, err := shellquote.Split(browserCommand)
		if err == nil && len(parts) > 0 {
			if exec.Command(parts[0], append(parts[1:], url)...).Start() == nil {
				return
			}
		}
	}

	var err error
	switch runtime.GOOS {
	case "darwin":
		err = exec.Command("open", url).Start()
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("cmd", "/c", "start", url).Start()
	}
	// Silently ignore errors - user can manually open the URL
	_ = err
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jordanella.com/scrollshot/internal/config"
	"jordanella.com/scrollshot/internal/cv"
	"jordanella.com/scrollshot/internal/database"
	"jordanella.com/scrollshot/internal/events"
	"jordanella.com/scrollshot/internal/hotkey"
	"jordanella.com/scrollshot/internal/input"
	"jordanella.com/scrollshot/internal/logging"
	"jordanella.com/scrollshot/internal/output"
	"jordanella.com/scrollshot/internal/region"
	"jordanella.com/scrollshot/internal/session"
)

// Exit codes
const (
	exitOK       = 0
	exitFailed   = 1
	exitDegraded = 2
)

const recentErrorLimit = 5

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "Settings.ini", "Path to settings file (created with defaults if missing)")
	regionFlag := flag.String("region", "", "Capture rectangle as x,y,width,height")
	presetName := flag.String("preset", "", "Name of a region preset to capture")
	presetsPath := flag.String("presets", "presets.yaml", "Path to region presets file")
	showHistory := flag.Int("history", 0, "Print the N most recent sessions and exit")
	rollback := flag.Int("rollback", -1, "Roll the history schema back to version N and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("Invalid config: %v", err)
		return exitFailed
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	logging.SetDefaultLevel(level)
	logger := logging.NewLogger("Main")

	var history *database.DB
	if cfg.HistoryEnabled() {
		history, err = openHistory(cfg)
		if err != nil {
			logger.Error("History disabled", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	if *showHistory > 0 || *rollback >= 0 {
		if history == nil {
			log.Printf("History is not enabled in %s", *configPath)
			return exitFailed
		}
		if *rollback >= 0 {
			if err := history.RollbackTo(*rollback); err != nil {
				log.Printf("Failed to roll back history: %v", err)
				return exitFailed
			}
			fmt.Printf("History schema rolled back to version %d\n", *rollback)
			return exitOK
		}
		if err := printHistory(os.Stdout, history, *showHistory, time.Now()); err != nil {
			log.Printf("Failed to load history: %v", err)
			return exitFailed
		}
		return exitOK
	}

	if history != nil {
		pruned, err := pruneHistory(history, cfg.RetentionDays, time.Now())
		if err != nil {
			logger.Error("Failed to prune history", err)
		} else if pruned > 0 {
			logger.InfoWithContext("Pruned old sessions", map[string]interface{}{
				"sessions":       pruned,
				"retention_days": cfg.RetentionDays,
			})
		}
	}

	selector, err := buildSelector(*regionFlag, *presetName, *presetsPath)
	if err != nil {
		log.Printf("Failed to select region: %v", err)
		return exitFailed
	}

	// Event bus and file log
	bus := events.NewEventBus(256)
	defer bus.Stop()

	eventLog, err := logging.NewEventLogger(bus, cfg.LogDir)
	if err != nil {
		logger.Error("Event log disabled", err)
	} else {
		defer eventLog.Close()
	}

	reporter := logging.NewErrorReporter()
	reporter.SetLogger(logger)

	capturer, err := cv.NewCapturer(cfg.CaptureMethod)
	if err != nil {
		logger.Error("Failed to create capturer", err)
		return exitFailed
	}

	scroller, closeScroller, err := input.NewScroller(cfg)
	if err != nil {
		logger.Error("Failed to create scroller", err)
		return exitFailed
	}
	defer closeScroller()

	deps := session.Dependencies{
		Selector:  selector,
		Capturer:  capturer,
		Scroller:  scroller,
		Activator: input.NewWindowActivator(),
		Persister: output.NewWriter(cfg.OutputDir, cfg.ExportPDF),
		Bus:       bus,
		Errors:    reporter,
	}
	if history != nil {
		deps.History = history
	}

	s := session.New(deps, session.OptionsFromConfig(cfg)).WithHooks(session.Hooks{
		OnProgress: func(msg string) { fmt.Println(msg) },
	})

	// Ctrl+C and the global Esc key both stop the capture
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := hotkey.Watch(ctx, s.Stop); err != nil {
		logger.WarnWithContext("Esc hotkey unavailable, use Ctrl+C to stop", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result := s.Start(ctx)
	return report(os.Stdout, result, reporter)
}

// loadConfig reads the settings file, writing defaults when it does not exist
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := config.NewDefaultConfig()
		if err := config.SaveToINI(cfg, path); err != nil {
			log.Printf("Warning: Failed to write default config: %v", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadFromINI(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func openHistory(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(cfg.HistoryDriver, cfg.HistoryDSN)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// buildSelector picks the region source: an explicit rectangle, then a preset
func buildSelector(rect, preset, presetsPath string) (region.Selector, error) {
	if rect != "" {
		r, err := region.Parse(rect)
		if err != nil {
			return nil, err
		}
		return region.NewFixed(r), nil
	}

	if preset == "" {
		return nil, fmt.Errorf("either -region or -preset is required")
	}

	presets, err := region.LoadPresets(presetsPath)
	if err != nil {
		return nil, err
	}
	p, ok := presets.Get(preset)
	if !ok {
		return nil, fmt.Errorf("preset %q not found (available: %s)", preset, strings.Join(presets.Names(), ", "))
	}
	return region.NewPresetSelector(p, input.FindWindow), nil
}

// report prints the outcome and maps it to an exit code. Errors collected
// during the session are listed when it did not end cleanly.
func report(w io.Writer, result session.Result, reporter *logging.ErrorReporter) int {
	if result.OutputPath != "" {
		fmt.Fprintf(w, "Saved %s (%s, %d frames)\n", result.OutputPath, result.Composite, result.Frames)
	}
	if result.SaveErr != nil {
		fmt.Fprintf(w, "Failed to save composite: %v\n", result.SaveErr)
	}

	code := exitOK
	switch {
	case result.State == session.StateCompleted:
		if result.SaveErr != nil {
			code = exitFailed
		}
	case result.State == session.StateCancelled:
	case result.Degraded():
		fmt.Fprintf(w, "Stitching failed after %d frames: %v\n", result.Frames, result.Err)
		code = exitDegraded
	default:
		fmt.Fprintf(w, "Capture failed: %v\n", result.Err)
		code = exitFailed
	}

	if code != exitOK && reporter != nil {
		printErrors(w, reporter, recentErrorLimit)
	}
	return code
}

// printErrors lists the last n reported errors, oldest first
func printErrors(w io.Writer, reporter *logging.ErrorReporter, n int) {
	if reporter.Count() == 0 {
		return
	}
	fmt.Fprintf(w, "Errors (%d reported):\n", reporter.Count())
	for _, e := range reporter.GetRecentErrors(n) {
		fmt.Fprintf(w, "  %s  %-8s %s", e.Timestamp.Local().Format(time.TimeOnly), e.Category, e.Message)
		if e.Error != nil {
			fmt.Fprintf(w, ": %v", e.Error)
		}
		fmt.Fprintln(w)
	}
}

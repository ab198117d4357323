// Package cli implements the agenda command line.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agenda/internal/calendar"
	"agenda/internal/config"
	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/snapshot"
)

// env is the viper instance binding flags to AGENDA_* environment variables.
var env = viper.New()

// app holds the state shared by all subcommands once the root command has
// loaded the configuration.
var app struct {
	cfg        *config.Config
	configPath string
	dataPath   string
	now        func() time.Time
}

var rootCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Calendar placement, recurrence and time accounting",
	Long: `agenda computes calendar views, meeting recurrences and working-time
balances from a YAML snapshot of actions, meetings, time entries and tags.

Every flag can also be set through an AGENDA_* environment variable,
e.g. AGENDA_CONFIG or AGENDA_NOW.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "config.yaml", "Path to config file (created on first run)")
	pf.String("data", "", "Snapshot file (overrides data_path from the config)")
	pf.String("now", "", `Pin "now" (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)`)
	pf.String("log-level", "", "Log level: debug, info or error")

	env.SetEnvPrefix("AGENDA")
	env.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	env.AutomaticEnv()
	for _, name := range []string{"config", "data", "now", "log-level"} {
		_ = env.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(agendaCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(geometryCmd)
	rootCmd.AddCommand(exportICSCmd)
	rootCmd.AddCommand(importICSCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	app.configPath = env.GetString("config")
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl := env.GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		cfg.Normalize()
	}
	app.cfg = cfg

	appLog.SetLevel(appLog.Level(cfg.LogLevel))
	if cfg.LogFile != "" {
		appLog.SetOutputFile(cfg.LogFile)
	}

	app.dataPath = env.GetString("data")
	if app.dataPath == "" {
		app.dataPath = cfg.ResolveDataPath(app.configPath)
	}

	app.now = time.Now
	if raw := env.GetString("now"); raw != "" {
		pinned, err := parseNow(raw)
		if err != nil {
			return err
		}
		app.now = func() time.Time { return pinned }
	}

	appLog.Debug("effective config",
		"config_path", app.configPath,
		"data_path", app.dataPath,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
	)
	return nil
}

// parseNow accepts the layouts documented on the --now flag and returns a
// naive wall-clock time.
func parseNow(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return calendar.Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now %q", raw)
}

// today returns the injected current time as a naive value.
func today() time.Time {
	return calendar.Naive(app.now())
}

func loadSnapshot() (*snapshot.Snapshot, error) {
	s, err := snapshot.Load(app.dataPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}

func saveSnapshot(s *snapshot.Snapshot) error {
	if err := snapshot.Save(app.dataPath, s); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// mergeMeetings replaces meetings with a matching ID and appends the rest,
// so importing the same feed twice does not duplicate it.
func mergeMeetings(existing, incoming []model.Meeting) []model.Meeting {
	index := make(map[string]int, len(existing))
	for i, m := range existing {
		index[m.ID] = i
	}
	for _, m := range incoming {
		if i, ok := index[m.ID]; ok {
			existing[i] = m
			continue
		}
		index[m.ID] = len(existing)
		existing = append(existing, m)
	}
	return existing
}

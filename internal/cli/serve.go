package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "agenda/internal/log"
	"agenda/internal/snapshot"
	"agenda/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and reload the snapshot on a schedule",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	_ = env.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer appLog.Sync()

	cfg := app.cfg
	if listen := env.GetString("listen"); listen != "" {
		cfg.Listen = listen
	}

	holder := snapshot.NewHolder(app.dataPath)
	if err := holder.Reload(); err != nil {
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched, err := startReloader(cfg.RefreshCron, holder)
	if err != nil {
		return err
	}
	defer func() {
		<-sched.Stop().Done()
	}()

	appLog.Info("agenda serving",
		"listen", cfg.Listen,
		"data_path", app.dataPath,
		"refresh", cfg.RefreshCron,
	)

	srv := web.NewServer(cfg, holder, web.WithClock(app.now))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	appLog.Info("agenda exiting")
	return nil
}

// startReloader reloads the snapshot on schedule. A failed reload keeps
// the previous snapshot and is retried on the next tick.
func startReloader(schedule string, holder *snapshot.Holder) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		_ = holder.Reload()
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// contextOrBackground guards against commands executed without a context.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

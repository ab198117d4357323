package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"agenda/internal/grid"
	"agenda/internal/model"
)

var (
	geometryStart string
	geometryEnd   string
	geometryPPH   float64
)

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Show where a meeting is drawn on the day grid",
	Args:  cobra.NoArgs,
	RunE:  runGeometry,
}

func init() {
	geometryCmd.Flags().StringVar(&geometryStart, "start", "", "Start time HH:MM")
	geometryCmd.Flags().StringVar(&geometryEnd, "end", "", "End time HH:MM (default start + 1h)")
	geometryCmd.Flags().Float64Var(&geometryPPH, "pph", 0, "Pixels per hour (default from config)")
	_ = geometryCmd.MarkFlagRequired("start")
}

func runGeometry(cmd *cobra.Command, _ []string) error {
	start, err := model.ParseClock(geometryStart)
	if err != nil {
		return err
	}
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	m := model.Meeting{Start: day.Add(time.Duration(start.Minutes()) * time.Minute)}
	if geometryEnd != "" {
		end, err := model.ParseClock(geometryEnd)
		if err != nil {
			return err
		}
		m.End = day.Add(time.Duration(end.Minutes()) * time.Minute)
	}

	scale := grid.Scale{PixelsPerHour: geometryPPH}
	if scale.PixelsPerHour <= 0 {
		scale.PixelsPerHour = app.cfg.Grid.PixelsPerHour
	}

	g := grid.Position(m)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "top      %d min  (%.1f px)\n", g.Top, scale.Pixels(g.Top))
	fmt.Fprintf(out, "height   %d min  (%.1f px)\n", g.Height, scale.Pixels(g.Height))
	fmt.Fprintf(out, "duration %d min\n", g.Duration)
	fmt.Fprintf(out, "compact  %t\n", g.Compact)
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agenda/internal/config"
	"agenda/internal/ics"
)

var (
	exportOut  string
	importSave bool
)

var exportICSCmd = &cobra.Command{
	Use:   "export-ics",
	Short: "Export all meetings as an iCalendar file",
	Args:  cobra.NoArgs,
	RunE:  runExportICS,
}

var importICSCmd = &cobra.Command{
	Use:   "import-ics FILE|URL",
	Short: "Import VEVENTs from an iCalendar file or feed URL",
	Long: `import-ics converts every VEVENT of FILE into meetings. Recurring events
are expanded into independent instances. With --save they are appended to
the snapshot; otherwise they are only listed.

An http(s) URL is downloaded with conditional requests; the last good body
is cached under ics_cache_dir and used when the feed is unreachable.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportICS,
}

func init() {
	exportICSCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")
	importICSCmd.Flags().BoolVar(&importSave, "save", false, "Append the imported meetings to the snapshot file")
}

func runExportICS(cmd *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	body := ics.Export(snap.Meetings, ics.ExportConfig{
		Name:     "Agenda",
		Tags:     snap.Tags,
		Resolver: app.cfg.Resolver(),
		Now:      app.now().UTC(),
	})
	if exportOut == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), body)
		return err
	}
	if err := config.WriteFileAtomic(exportOut, []byte(body)); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d meeting(s) to %s\n", len(snap.Meetings), exportOut)
	return nil
}

func runImportICS(cmd *cobra.Command, args []string) error {
	body, err := readFeed(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := ics.Import(body)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range res.Meetings {
		fmt.Fprintf(out, "%s  %s  %s\n", m.Start.Format("2006-01-02 15:04"), m.End.Format("15:04"), m.Title)
	}
	fmt.Fprintf(out, "%d meeting(s), %d skipped, %d with unsupported recurrence\n",
		len(res.Meetings), len(res.Skipped), len(res.Unsupported))

	if !importSave {
		return nil
	}
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	snap.Meetings = mergeMeetings(snap.Meetings, res.Meetings)
	if err := saveSnapshot(snap); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved to %s\n", app.dataPath)
	return nil
}

func readFeed(cmd *cobra.Command, src string) ([]byte, error) {
	if !ics.IsURL(src) {
		return os.ReadFile(src)
	}
	f := ics.NewFetcher(app.cfg.ResolveICSCacheDir(app.configPath))
	feed, err := f.Fetch(contextOrBackground(cmd.Context()), src)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if feed.FromCache {
		fmt.Fprintln(cmd.ErrOrStderr(), "using cached copy of the feed")
	}
	return feed.Body, nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/report"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

func addReport(topLevel *cobra.Command) {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the AI daily progress report",
		Long: `Report asks the text model for a daily progress report over all
records. The last successful report is kept in the local slot store and
printed again until --refresh is given.

Examples:
  sitetrack report
  sitetrack report --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			r, err := runReport(cmd.Context(), cfg, log, refresh)
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), r)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the saved report and generate a new one")
	topLevel.AddCommand(cmd)
}

func reportSlot(cfg *config.Config) string {
	return cfg.Local.Slot + ".report"
}

func runReport(ctx context.Context, cfg *config.Config, log *logger.Logger, refresh bool) (report.Report, error) {
	slots, closeSlots, err := store.OpenSlots(cfg.Local)
	if err != nil {
		return report.Report{}, err
	}
	saved, ok := readSavedReport(ctx, slots, reportSlot(cfg), log)
	// the store opens its own handle on the slot below
	if err := closeSlots(); err != nil {
		log.Warn("failed to close local slots", "error", err)
	}
	if ok && !refresh {
		saved.Cached = true
		return saved, nil
	}

	var r report.Report
	err = withSnapshot(ctx, cfg, log, func(snap store.Snapshot) error {
		svc := report.NewService(report.New(ctx, cfg.Gemini, log), log)
		r = svc.Report(ctx, snap.Records, true)
		return nil
	})
	if err != nil {
		return report.Report{}, err
	}
	if !r.Failed {
		saveReport(ctx, cfg, log, r)
	}
	return r, nil
}

func readSavedReport(ctx context.Context, slots store.SlotStore, slot string, log *logger.Logger) (report.Report, bool) {
	payload, err := slots.Read(ctx, slot)
	if err != nil || payload == nil {
		return report.Report{}, false
	}
	var r report.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Warn("ignoring malformed saved report", "error", err)
		return report.Report{}, false
	}
	return r, true
}

func saveReport(ctx context.Context, cfg *config.Config, log *logger.Logger, r report.Report) {
	slots, closeSlots, err := store.OpenSlots(cfg.Local)
	if err != nil {
		log.Warn("failed to save report", "error", err)
		return
	}
	defer func() { _ = closeSlots() }()

	payload, err := json.Marshal(r)
	if err == nil {
		err = slots.Write(ctx, reportSlot(cfg), payload)
	}
	if err != nil {
		log.Warn("failed to save report", "error", err)
	}
}

func renderReport(out io.Writer, r report.Report) {
	faint := color.New(color.Faint)
	if r.Failed {
		_, _ = color.New(color.FgRed).Fprintln(out, r.Text)
		return
	}
	_, _ = fmt.Fprintln(out, r.Text)
	label := "generated"
	if r.Cached {
		label = "saved report from"
	}
	_, _ = faint.Fprintf(out, "\n%s %s\n", label, r.GeneratedAt.Local().Format("2006-01-02 15:04"))
}

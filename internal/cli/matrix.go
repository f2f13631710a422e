package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/printers"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

func addMatrix(topLevel *cobra.Command) {
	var (
		filter  string
		asJSON  bool
		remarks bool
	)

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the segment x part progress matrix",
		Long: `Matrix prints every segment as a row and every part as a column,
sorted by segment number.

Examples:
  sitetrack matrix
  sitetrack matrix --filter 4
  sitetrack matrix --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			view, err := loadView(cmd.Context(), cfg, log, filter)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view, asJSON, remarks)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show segments whose name contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the matrix as JSON")
	cmd.Flags().BoolVar(&remarks, "remarks", false, "include remarks in cells")
	topLevel.AddCommand(cmd)
}

// withSnapshot opens the configured store, loads it once and hands the
// snapshot to fn.
func withSnapshot(ctx context.Context, cfg *config.Config, log *logger.Logger, fn func(store.Snapshot) error) error {
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Load(ctx); err != nil {
		return err
	}
	snap, _ := st.Latest()
	return fn(snap)
}

func loadView(ctx context.Context, cfg *config.Config, log *logger.Logger, filter string) (service.MatrixView, error) {
	var view service.MatrixView
	err := withSnapshot(ctx, cfg, log, func(snap store.Snapshot) error {
		view = service.View(snap, filter)
		return nil
	})
	return view, err
}

func printView(out io.Writer, view service.MatrixView, asJSON, remarks bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to encode matrix: %w", err)
		}
		return nil
	}

	p := printers.NewMatrixPrinter()
	if out != os.Stdout {
		p.Out = out
	}
	p.Remarks = remarks
	p.Header(view.Mode, view.Stats)
	p.Matrix(view.Matrix)
	return nil
}

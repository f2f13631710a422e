package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

func addExport(topLevel *cobra.Command) {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records as a JSON array",
		Long: `Export writes the current record set in the local slot format, so the
file can be restored into a slot or used to seed a remote store.

Examples:
  sitetrack export
  sitetrack export --out backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			return withSnapshot(cmd.Context(), cfg, log, func(snap store.Snapshot) error {
				payload, err := store.EncodeRecords(snap.Records)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
					return err
				}
				if err := os.WriteFile(out, payload, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				log.Info("records exported", "records", len(snap.Records), "file", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	topLevel.AddCommand(cmd)
}

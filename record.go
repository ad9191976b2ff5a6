package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewRecordCmd creates the record command
func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <file-number>",
		Short: "Extract a single council file and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if skip, _ := cmd.Flags().GetBool("no-attachments"); skip {
				cfg.Crawl.Attachments = false
			}

			rt, err := start(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			rec, err := rt.client.RecordByNumber(rt.browser.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}

	cmd.Flags().Bool("no-attachments", false, "Skip the attachment popups of file activities")
	return cmd
}

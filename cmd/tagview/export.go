package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/export"
	"github.com/rentscan/tagview/pkg/logging"
)

var (
	exportTab      string
	exportCategory string
	exportFormat   string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a full inventory snapshot to a file",
	Long: `Export fetches every page of a tab's listings and writes the subtree as
a JSON tree or flat CSV item rows. On a terminal an interactive form
collects the selection, pre-filled from any flags; without one the flags
drive the export directly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := export.Options{Category: exportCategory, Format: exportFormat, Out: exportOut}
		if exportTab != "" {
			tab := cfg.FindTab(exportTab)
			if tab == nil {
				return fmt.Errorf("unknown tab %q", exportTab)
			}
			opts.Tab = *tab
		}

		if export.Interactive() {
			if err := export.RunWizard(cfg, &opts); err != nil {
				return err
			}
		} else {
			if opts.Tab.Path == "" && len(cfg.Tabs) > 0 {
				opts.Tab = cfg.Tabs[0]
			}
			if opts.Format == "" {
				opts.Format = export.FormatJSON
			}
		}

		log := logging.Get()
		client := api.NewClient(cfg.Server.BaseURL, opts.Tab.Path,
			api.WithTimeout(cfg.Server.Timeout()),
			api.WithLogger(log))

		snap, err := export.NewExporter(client, cfg, log).Snapshot(cmd.Context(), opts)
		if err != nil {
			return err
		}
		path, err := snap.Write(opts.Format, opts.Out)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d items to %s\n", snap.ItemCount(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTab, "tab", "", "tab to export (name or path; default: first tab)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "restrict the export to one category")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: json or csv (default json)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: derived from tab and timestamp)")
}

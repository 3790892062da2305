package export

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/rentscan/tagview/pkg/config"
)

// Interactive reports whether stdin is a terminal. Without one the export
// command runs from flags alone.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !Interactive() {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard prompts for the export selection. Flag-provided values arrive
// in opts and become the form defaults, so pressing enter through the form
// keeps them.
func RunWizard(cfg config.Config, opts *Options) error {
	tabPath := opts.Tab.Path
	if tabPath == "" && len(cfg.Tabs) > 0 {
		tabPath = cfg.Tabs[0].Path
	}
	tabOptions := make([]huh.Option[string], 0, len(cfg.Tabs))
	for _, t := range cfg.Tabs {
		tabOptions = append(tabOptions, huh.NewOption(fmt.Sprintf("%s (%s)", t.Name, t.Path), t.Path))
	}
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tab to export").
				Options(tabOptions...).
				Value(&tabPath),
			huh.NewInput().
				Title("Category").
				Description("Leave empty to export every category").
				Value(&opts.Category),
			huh.NewSelect[string]().
				Title("Format").
				Options(
					huh.NewOption("JSON tree", FormatJSON),
					huh.NewOption("CSV item rows", FormatCSV),
				).
				Value(&format),
			huh.NewInput().
				Title("Output path").
				Description("Leave empty to derive one from the tab and timestamp").
				Value(&opts.Out),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	tab := cfg.FindTab(tabPath)
	if tab == nil {
		return fmt.Errorf("unknown tab %q", tabPath)
	}
	opts.Tab = *tab
	opts.Format = format
	return nil
}

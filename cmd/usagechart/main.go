// Package main provides the CLI entrypoint for usagechart.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/chart"
	"github.com/verte-zerg/usagechart/internal/config"
	"github.com/verte-zerg/usagechart/internal/dataset"
	"github.com/verte-zerg/usagechart/internal/export"
	"github.com/verte-zerg/usagechart/internal/log"
	"github.com/verte-zerg/usagechart/internal/panelui"
	"github.com/verte-zerg/usagechart/internal/store"
)

const defaultChartHeight = 10

var (
	verbose bool
	quiet   bool

	panelData        string
	panelCategory    string
	panelStart       string
	panelEnd         string
	panelTarget      float64
	panelTargetColor string

	tablePage int

	chartWidth  int
	chartHeight int

	exportPNG    string
	exportXLSX   string
	exportWidth  float64
	exportHeight float64

	importFrom string
	importDB   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "usagechart",
		Short:         "Daily users chart and table panel",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Setup(verbose, quiet)
		},
		RunE: runPanelCmd,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&panelData, "data", "", "dataset path (.json or .db; default: bundled sample)")
	rootCmd.PersistentFlags().StringVar(&panelCategory, "category", "", "initial category (default: first in dataset)")
	rootCmd.PersistentFlags().StringVar(&panelStart, "start", "", "start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&panelEnd, "end", "", "end date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Float64Var(&panelTarget, "target", 0, "target line value")
	rootCmd.PersistentFlags().StringVar(&panelTargetColor, "target-color", analytics.DefaultTargetColor, "target line color")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func runPanelCmd(cmd *cobra.Command, _ []string) error {
	panel, source, err := buildPanel(cmd)
	if err != nil {
		return err
	}
	log.Discard()
	model := panelui.NewModel(panel, source)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run panel TUI: %w", err)
	}
	return nil
}

// buildPanel loads the dataset and applies config and flags to a new panel.
func buildPanel(cmd *cobra.Command) (*analytics.Panel, string, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "data", &panelData, fileCfg.Panel.Data)
	applyStringConfig(cmd, "category", &panelCategory, fileCfg.Panel.Category)
	applyStringConfig(cmd, "start", &panelStart, fileCfg.Panel.Start)
	applyStringConfig(cmd, "end", &panelEnd, fileCfg.Panel.End)
	applyFloatConfig(cmd, "target", &panelTarget, fileCfg.Panel.Target)
	applyStringConfig(cmd, "target-color", &panelTargetColor, fileCfg.Panel.TargetColor)

	records, err := dataset.Load(contextOf(cmd), panelData)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load dataset: %w", err)
	}
	source := panelData
	if source == "" {
		source = dataset.SampleName
	}
	slog.Debug("dataset loaded", "source", source, "records", len(records))

	panel := analytics.NewPanel(records)
	if panelCategory != "" {
		if err := panel.SelectCategoryName(panelCategory); err != nil {
			return nil, "", fmt.Errorf("%w (available: %s)", err, strings.Join(panel.Categories(), ", "))
		}
	}
	panel.SetStartDate(panelStart)
	panel.SetEndDate(panelEnd)
	if err := panel.SetTarget(panelTarget); err != nil {
		return nil, "", fmt.Errorf("--target: %w", err)
	}
	panel.SetTargetColor(panelTargetColor)
	return panel, source, nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List dataset categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	panel, _, err := buildPanel(cmd)
	if err != nil {
		return err
	}
	cats := panel.Categories()
	if len(cats) == 0 {
		return fmt.Errorf("dataset has no categories")
	}
	for _, cat := range cats {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), cat); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print one page of the records table",
		Args:  cobra.NoArgs,
		RunE:  runTableCmd,
	}
	cmd.Flags().IntVar(&tablePage, "page", 1, "page number (1-based)")
	return cmd
}

func runTableCmd(cmd *cobra.Command, _ []string) error {
	if tablePage < 1 {
		return fmt.Errorf("--page must be >= 1")
	}
	panel, _, err := buildPanel(cmd)
	if err != nil {
		return err
	}
	panel.SetPage(tablePage - 1)
	view := panel.View()
	if view.Page.Index != tablePage-1 && view.Page.Count > 0 {
		slog.Warn("page out of range, clamped", "requested", tablePage, "shown", view.Page.Index+1)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s (%d rows)\n", view.Series.ID, len(view.Series.Points)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return chart.RenderTable(out, view.Page)
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the line chart with the target line",
		Args:  cobra.NoArgs,
		RunE:  runChartCmd,
	}
	cmd.Flags().IntVar(&chartWidth, "width", 0, "total width (default: terminal width)")
	cmd.Flags().IntVar(&chartHeight, "height", defaultChartHeight, "plot rows")
	return cmd
}

func runChartCmd(cmd *cobra.Command, _ []string) error {
	if chartHeight < 1 {
		return fmt.Errorf("--height must be >= 1")
	}
	panel, _, err := buildPanel(cmd)
	if err != nil {
		return err
	}
	return chart.RenderChart(cmd.OutOrStdout(), panel.View().Chart, chart.Options{
		Width:  chartWidth,
		Height: chartHeight,
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the chart image and/or table workbook",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportPNG, "png", "", "chart image path (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&exportXLSX, "xlsx", "", "table workbook path")
	cmd.Flags().Float64Var(&exportWidth, "width", float64(export.DefaultImageWidth/vg.Inch), "image width in inches")
	cmd.Flags().Float64Var(&exportHeight, "height", float64(export.DefaultImageHeight/vg.Inch), "image height in inches")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	if exportPNG == "" && exportXLSX == "" {
		return fmt.Errorf("nothing to export (use --png and/or --xlsx)")
	}
	if exportWidth <= 0 || exportHeight <= 0 {
		return fmt.Errorf("--width and --height must be > 0")
	}
	panel, _, err := buildPanel(cmd)
	if err != nil {
		return err
	}
	view := panel.View()
	if exportPNG != "" {
		if err := ensureDir(exportPNG); err != nil {
			return err
		}
		if err := export.SaveChart(exportPNG, view.Chart, vg.Length(exportWidth)*vg.Inch, vg.Length(exportHeight)*vg.Inch); err != nil {
			return err
		}
		slog.Info("wrote chart", "path", exportPNG, "points", len(view.Series.Points))
	}
	if exportXLSX != "" {
		if err := ensureDir(exportXLSX); err != nil {
			return err
		}
		if err := export.SaveWorkbook(exportXLSX, view); err != nil {
			return err
		}
		slog.Info("wrote workbook", "path", exportXLSX, "rows", len(view.Series.Points))
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON dataset into SQLite",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importFrom, "from", "", "JSON dataset to import")
	cmd.Flags().StringVar(&importDB, "db", "", "database path (default: XDG data dir)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	if importFrom == "" {
		return fmt.Errorf("--from is required")
	}
	dbPath := importDB
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	records, err := dataset.LoadFile(importFrom)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", importFrom, err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close db", "error", cerr)
		}
	}()
	if err := st.ReplaceRecords(contextOf(cmd), records); err != nil {
		return fmt.Errorf("failed to import records: %w", err)
	}
	slog.Info("imported dataset", "from", importFrom, "db", dbPath, "records", len(records))
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeDefaultConfig creates the config file from the template unless it exists.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# usagechart configuration
# Uncomment a value to enable it. CLI flags override config values.

[panel]
# data = "%s"          # Dataset path (.json or .db); empty uses the bundled sample
# category = ""          # Initial category (default: first in dataset)
# start = "2023-02-01"   # Start date (YYYY-MM-DD); filtering needs start and end
# end = "2023-02-14"     # End date (YYYY-MM-DD)
# target = 0             # Target line value
# target-color = %q # Target line color
`,
		config.DefaultDBPath(),
		analytics.DefaultTargetColor,
	)
}

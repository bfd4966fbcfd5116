// agridash serves crop production, trade and self-sufficiency dashboards
// from a statistics table.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/api"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/config"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/report"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/tools"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agridash",
	Short: "agridash: agriculture statistics dashboard",
	Long: `agridash loads a crop statistics table (CSV or Excel) and presents
three analyses per crop: production, export/import and self sufficiency.
It runs as a web dashboard, renders charts to files, or answers MCP tool calls.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if data, _ := cmd.Flags().GetString("data"); data != "" {
			cfg.Data.Path = data
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data", "", "data file override (.csv or .xlsx)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cropsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mcpCmd)
}

// openStore loads the configured data file.
func openStore() (*dataset.Store, error) {
	opts, err := cfg.Data.LoadOptions()
	if err != nil {
		return nil, err
	}
	return dataset.Open(cfg.Data.Path, opts...)
}

// openDashboard builds the dashboard with configured layout overrides.
func openDashboard() (*dashboard.Dashboard, error) {
	layouts, err := cfg.Dashboard.Layouts()
	if err != nil {
		return nil, err
	}
	return dashboard.New(layouts)
}

func renderConfig() report.Config {
	return report.Config{Width: cfg.Render.Width, Height: cfg.Render.Height}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agridash %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		dash, err := openDashboard()
		if err != nil {
			return err
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			cfg.Data.Watch = true
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		srv := api.NewServer(cfg, store, dash)
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Serving %s (%d rows, %d crops) on http://%s\n",
			cfg.Data.Path, store.Table().Len(), len(store.Table().Crops()), addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
	serveCmd.Flags().Bool("watch", false, "reload the data file when it changes")
	serveCmd.Flags().Bool("no-ui", false, "serve the JSON API only")
}

// --- Crops Command ---

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "List the crops in the data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		for _, c := range store.Table().Crops() {
			fmt.Println(c)
		}
		return nil
	},
}

// --- Show Command ---

var showCmd = &cobra.Command{
	Use:   "show [view] [crop]",
	Short: "Print a view for one crop as tables",
	Long: `Print a dashboard view for one crop in the terminal.

Examples:
  agridash show production Rice
  agridash show trade maize --data
  agridash show "Self Sufficiency Analysis" Rice --code`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := dashboard.ParseView(args[0])
		if err != nil {
			return fmt.Errorf("%w (want one of %s)", err, viewKeys())
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		dash, err := openDashboard()
		if err != nil {
			return err
		}

		t := store.Table()
		showData, _ := cmd.Flags().GetBool("data")
		showCode, _ := cmd.Flags().GetBool("code")
		sel := dashboard.Selection{
			View:     view,
			Crop:     utils.MatchCrop(args[1], t.Crops()),
			ShowData: showData,
			ShowCode: showCode,
		}
		panel, err := dash.Render(t, sel)
		if err != nil {
			return err
		}
		return report.GenerateText(os.Stdout, panel)
	},
}

func init() {
	showCmd.Flags().Bool("data", false, "print the filtered rows")
	showCmd.Flags().Bool("code", false, "print the view snippet")
}

// --- Render Command ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render charts to files",
	Long: `Render charts for every view and crop (or one selection) into a directory.

Examples:
  agridash render --out charts --format png
  agridash render --view trade --crop Rice --format svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		rawView, _ := cmd.Flags().GetString("view")
		crop, _ := cmd.Flags().GetString("crop")

		store, err := openStore()
		if err != nil {
			return err
		}
		dash, err := openDashboard()
		if err != nil {
			return err
		}
		t := store.Table()

		jobs := report.AllJobs(t.Crops(), format)
		if rawView != "" || crop != "" {
			jobs = filterJobs(jobs, rawView, utils.MatchCrop(crop, t.Crops()))
			if len(jobs) == 0 {
				return fmt.Errorf("no charts match view %q and crop %q", rawView, crop)
			}
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", outDir, err)
		}
		results, err := report.RenderBatch(cmd.Context(), dash, t, jobs, renderConfig(), cfg.Render.Workers)
		if err != nil {
			return err
		}
		for _, r := range results {
			path := filepath.Join(outDir, r.Name)
			if err := os.WriteFile(path, r.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
		fmt.Printf("Rendered %d charts to %s\n", len(results), outDir)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("out", "charts", "output directory")
	renderCmd.Flags().String("format", "png", "output format (html, png, svg, pdf, text)")
	renderCmd.Flags().String("view", "", "render only this view")
	renderCmd.Flags().String("crop", "", "render only this crop")
}

// filterJobs keeps jobs matching a view and crop; empty arguments match all.
func filterJobs(jobs []report.Job, rawView, crop string) []report.Job {
	var view dashboard.View
	if rawView != "" {
		v, err := dashboard.ParseView(rawView)
		if err != nil {
			return nil
		}
		view = v
	}
	var out []report.Job
	for _, j := range jobs {
		if view != "" && j.Selection.View != view {
			continue
		}
		if crop != "" && j.Selection.Crop != crop {
			continue
		}
		out = append(out, j)
	}
	return out
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full table as CSV or Excel",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		store, err := openStore()
		if err != nil {
			return err
		}

		var data []byte
		if strings.EqualFold(filepath.Ext(out), ".xlsx") {
			data, err = dataset.ExportXLSX(store.Table())
		} else {
			data, err = dataset.ExportCSV(store.Table())
		}
		if err != nil {
			return err
		}

		if out == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Exported %d rows to %s\n", store.Table().Len(), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", dataset.ExportFileName, `output file (.csv or .xlsx, "-" for stdout)`)
}

// --- MCP Command ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve dashboard tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		log.SetOutput(os.Stderr)

		store, err := openStore()
		if err != nil {
			return err
		}
		dash, err := openDashboard()
		if err != nil {
			return err
		}

		s := tools.NewServer(tools.New(store, dash, renderConfig()), version)
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	},
}

func viewKeys() string {
	keys := make([]string, len(dashboard.AllViews))
	for i, v := range dashboard.AllViews {
		keys[i] = string(v)
	}
	return strings.Join(keys, ", ")
}

// JyotishAI — Vedic astrology computation and AI analysis backend.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/saptarishi/jyotishai/api"
	"github.com/saptarishi/jyotishai/internal/chart"
	"github.com/saptarishi/jyotishai/internal/config"
	"github.com/saptarishi/jyotishai/internal/dasha"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/internal/logger"
	"github.com/saptarishi/jyotishai/internal/panchang"
	"github.com/saptarishi/jyotishai/internal/transit"
	"github.com/saptarishi/jyotishai/pkg/models"
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
	Use:   "jyotishai",
	Short: "JyotishAI — Vedic astrology computation and AI analysis backend",
	Long: `JyotishAI computes sidereal charts, divisional charts, dashas,
panchang and transits, and serves AI-written readings over an HTTP API.`,
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
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if _, err := logger.Setup(cfg.Logging); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(panchangCmd)
	rootCmd.AddCommand(dashaCmd)
	rootCmd.AddCommand(transitsCmd)
	rootCmd.AddCommand(statusCmd)
}

// birthFlags reads the shared birth coordinate flags.
func birthFlags(cmd *cobra.Command) (models.BirthData, error) {
	d, _ := cmd.Flags().GetString("date")
	tm, _ := cmd.Flags().GetString("time")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	tz, _ := cmd.Flags().GetInt("tz")

	b := models.BirthData{Date: d, Time: tm, Lat: lat, Lon: lon, TZOffset: &tz}
	if err := b.Validate(); err != nil {
		return models.BirthData{}, err
	}
	return b, nil
}

func addBirthFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "birth date (YYYY-MM-DD)")
	cmd.Flags().String("time", "", "birth time (HH:MM)")
	cmd.Flags().Float64("lat", 0, "birth latitude")
	cmd.Flags().Float64("lon", 0, "birth longitude")
	cmd.Flags().Int("tz", 330, "timezone offset in minutes east of UTC")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
}

func newEngine() (ephemeris.Engine, error) {
	mode := "lahiri"
	switch cfg.Astro.AyanamsaMode {
	case "Raman":
		mode = "raman"
	case "KP", "Krishnamurti":
		mode = "krishnamurti"
	}
	node := ephemeris.MeanNode
	if cfg.Astro.NodeMode == "True" {
		node = ephemeris.TrueNode
	}
	return ephemeris.NewEngine(ephemeris.Config{Ayanamsa: mode, Node: node})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("JyotishAI %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		logrus.WithField("addr", addr).Info("starting JyotishAI API server")
		return srv.ListenAndServe(addr)
	},
}

// --- Chart Command ---

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Compute a natal chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		birth, err := birthFlags(cmd)
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		natal, err := chart.Compute(eng, birth)
		if err != nil {
			return err
		}
		return printJSON(natal)
	},
}

func init() { addBirthFlags(chartCmd) }

// --- Panchang Command ---

var panchangCmd = &cobra.Command{
	Use:   "panchang",
	Short: "Compute the panchang for a date and place",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		tz, _ := cmd.Flags().GetInt("tz")
		if date == "" {
			loc := time.FixedZone("local", tz*60)
			date = time.Now().In(loc).Format("2006-01-02")
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		p, err := panchang.New(eng).Compute(date, lat, lon, tz)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

func init() {
	panchangCmd.Flags().String("date", "", "civil date (YYYY-MM-DD, default today)")
	panchangCmd.Flags().Float64("lat", 23.1765, "latitude (default Ujjain)")
	panchangCmd.Flags().Float64("lon", 75.7885, "longitude (default Ujjain)")
	panchangCmd.Flags().Int("tz", 330, "timezone offset in minutes east of UTC")
}

// --- Dasha Command ---

var dashaCmd = &cobra.Command{
	Use:   "dasha",
	Short: "Show the running dasha periods for a birth",
	RunE: func(cmd *cobra.Command, args []string) error {
		birth, err := birthFlags(cmd)
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		natal, err := chart.Compute(eng, birth)
		if err != nil {
			return err
		}
		snap, err := dasha.ActiveAt(natal, time.Now().UTC())
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

func init() { addBirthFlags(dashaCmd) }

// --- Transits Command ---

var transitsCmd = &cobra.Command{
	Use:   "transits",
	Short: "Scan upcoming transit activations for a birth",
	RunE: func(cmd *cobra.Command, args []string) error {
		birth, err := birthFlags(cmd)
		if err != nil {
			return err
		}
		months, _ := cmd.Flags().GetInt("months")
		if months < 1 {
			return fmt.Errorf("months must be >= 1")
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		natal, err := chart.Compute(eng, birth)
		if err != nil {
			return err
		}

		start := time.Now().UTC()
		end := start.AddDate(0, months, 0)
		res, err := transit.NewScanner(eng).Scan(context.Background(), natal, start, end, transit.Filters{
			StepDays: cfg.Astro.TransitStepDays,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	addBirthFlags(transitsCmd)
	transitsCmd.Flags().Int("months", 12, "scan window length in months")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  JyotishAI — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):   %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Ayanamsa:     %s (%s nodes)\n", cfg.Astro.AyanamsaMode, cfg.Astro.NodeMode)
		fmt.Printf("    LLM Provider: %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Store:        %s\n", cfg.Store.Path)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-22s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

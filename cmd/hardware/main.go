package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/darkit/sysinfo"
)

var (
	configFile string
	format     string
	logLevel   string
	cfg        *sysinfo.Config
)

var rootCmd = &cobra.Command{
	Use:          "hardware",
	Short:        "print the hardware and software identity of this host",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = sysinfo.LoadConfig(configFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel = logLevel
		}
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
		}
		zerolog.SetGlobalLevel(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := sysinfo.NewCollector(cfg)
		if err != nil {
			return err
		}
		info, err := c.Machine(cmd.Context())
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), info)
	},
}

// probeReport 单项探测的输出格式
type probeReport struct {
	Probe  string `json:"probe" yaml:"probe"`
	Signal string `json:"signal" yaml:"signal"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "run every virtualization probe and print its signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := sysinfo.NewCollector(cfg)
		if err != nil {
			return err
		}
		obs := c.Virtualization()
		report := make([]probeReport, 0, len(obs))
		for _, o := range obs {
			r := probeReport{Probe: o.Probe, Signal: o.Signal.String()}
			if o.Err != nil {
				r.Error = o.Err.Error()
			}
			report = append(report, r)
		}
		return write(cmd.OutOrStdout(), report)
	},
}

func write(w io.Writer, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Errorf("unsupported format %q (json|yaml)", format)
	}
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path of the sysinfo YAML config")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(probesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Send()
	}
}

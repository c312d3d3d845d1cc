package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Wesleyxl/pitcrew-ai/pkg/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
}

func newRootCmd(stdout io.Writer, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "pitcrew",
		Short: "Live F1 24 UDP telemetry ingest",
		Long: `pitcrew listens for the game's UDP telemetry feed, decodes every packet
kind and fans the records out to a JSONL recorder, a Foxglove websocket
bridge, an HTTP status endpoint and a terminal dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", config.DefaultConfigPath, "config file (TOML)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: console, json")
	pf.StringVar(&g.logFile, "log-file", "", "also write logs to this rotated file")

	root.AddCommand(
		serveCmd(g),
		tuiCmd(g),
		mockCmd(),
		replayCmd(),
		versionCmd(),
	)
	return root
}

// load reads the config file and applies the global flag overrides.
func (g *globalFlags) load() (config.PitcrewConfig, error) {
	cfg, _, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return config.PitcrewConfig{}, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = strings.ToLower(g.logLevel)
	}
	if g.logFormat != "" {
		cfg.Log.Format = strings.ToLower(g.logFormat)
	}
	if g.logFile != "" {
		cfg.Log.File = g.logFile
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

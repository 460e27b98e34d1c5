package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/callspec/compiler"
	"github.com/wippyai/callspec/config"
	"github.com/wippyai/callspec/frontend/manifest"
	"github.com/wippyai/callspec/frontend/rust"
)

// app carries state shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
	styles styles

	configPath   string
	format       string
	contextTypes []string
	workers      int
	verbose      bool
	color        string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "sigc",
		Short:         "Check native method declarations against the dynamic calling convention",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" when present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.IntVarP(&a.workers, "workers", "j", 0, "parallel workers (0 uses GOMAXPROCS)")
	flags.StringSliceVar(&a.contextTypes, "context-type", nil, "context handle type name (repeatable)")
	flags.StringVarP(&a.format, "format", "f", "", "output format: text, json or yaml")
	flags.StringVar(&a.color, "color", "auto", "colour output: auto, always or never")

	root.AddCommand(
		newCheckCmd(a),
		newDumpCmd(a),
		newWatchCmd(a),
		newBrowseCmd(a),
	)
	return root
}

// setup loads the config file, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("context-type") {
		cfg.ContextTypes = a.contextTypes
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = newLogger(a.stderr, cfg.LogLevel)
	compiler.SetLogger(a.log.Named("compiler"))
	rust.SetLogger(a.log.Named("rust"))
	manifest.SetLogger(a.log.Named("manifest"))

	a.styles = newStyles(a.useColor())
	return nil
}

func (a *app) useColor() bool {
	switch a.color {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) newCompiler(metrics *compiler.Metrics) *compiler.Compiler {
	return compiler.New(compiler.Options{
		Metrics:      metrics,
		ContextTypes: a.cfg.ContextTypes,
		Workers:      a.cfg.Workers,
	})
}

// newLogger writes console-encoded logs to w at the given level.
func newLogger(w io.Writer, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

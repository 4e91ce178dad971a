package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pdfpages/common"
	"pdfpages/config"
	"pdfpages/convert"
	"pdfpages/misc"
	"pdfpages/state"
)

// initializeAppContext loads configuration, starts debug report and logging.
// It runs after global flags are parsed and before any subcommand.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// help only
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, common.WrapError(common.ErrorKindConfiguration, err, "unable to prepare configuration")
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// effective configuration, defaults included
		if data, err := config.Dump(env.Cfg); err == nil {
			name := "config.yaml"
			if len(configFile) > 0 {
				name = filepath.Base(configFile)
			}
			env.Rpt.StoreData(fmt.Sprintf("config/%s", name), data)
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt, 0); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	env.RestoreStdLog()

	// log file is complete now and could go into report, from here on
	// problems are only returned
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// empty panic file means there was no panic
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors, exit code is derived from error kind in
// main rather than with cli.Exit().
var errWasHandled bool

// exitErrHandler logs subcommand failure while log is still open.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err), zap.Int("exit code", common.ExitCode(err)))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// reported by exitErrHandler or in main
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// allow graceful shutdown on interrupt, converter is killed with context
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "post-processor turning pdf2htmlEX output into independent page bundles",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:                   "process",
				Usage:                  "Converts PDF described by job file and publishes page bundles",
				OnUsageError:           usageErrorHandler,
				UseShortOptionHandling: true,
				Action:                 convert.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "load job description from `FILE` (JSON)"},
					&cli.BoolFlag{Name: "folder", Usage: "create missing textbook, pages, fonts and page folders"},
					&cli.BoolFlag{Name: "test", Usage: "produce preview document with all pages in working folder"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "more output, repeat (-vv) to see converter output"},
				},
				CustomHelpTemplate: fmt.Sprintf(`%s
EXIT CODES:
    0   success
    404 job, destination folders or page configuration problems
    255 any other failure, converter problems included

Manifest with processing results is written to location specified in job file
even when processing fails, as soon as job file is successfully loaded.
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       dumpConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}
	// log is either not ready (command line problems) or closed already
	if !errWasHandled {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode converts failure to process exit status, negative codes wrap
// around as the operating system does it.
func exitCode(err error) int {
	code := common.ExitCode(err)
	if code < 0 {
		return code & 0xff
	}
	return code
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pdfpages/config"
	"pdfpages/state"
)

// dumpConfiguration is the action of "dumpconfig" subcommand.
func dumpConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	what, data, err := selectConfiguration(env.Cfg, cmd.Bool("default"))
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	dst := cmd.Args().Get(0)
	env.Log.Info("Writing configuration", zap.String("state", what), zap.String("file", destinationName(dst)))
	return writeConfiguration(dst, data, os.Stdout)
}

// selectConfiguration returns either embedded defaults or effective
// configuration.
func selectConfiguration(cfg *config.Config, defaults bool) (string, []byte, error) {
	if defaults {
		data, err := config.Prepare()
		return "default", data, err
	}
	data, err := config.Dump(cfg)
	return "actual", data, err
}

func destinationName(dst string) string {
	if len(dst) == 0 {
		return "STDOUT"
	}
	return dst
}

// writeConfiguration writes data to file dst or to stdout when dst is empty.
func writeConfiguration(dst string, data []byte, stdout io.Writer) (err error) {
	out := stdout
	if len(dst) > 0 {
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
		}
		defer func() {
			if e := f.Close(); e != nil && err == nil {
				err = e
			}
		}()
		out = f
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"arkaive/internal/config"
	"arkaive/internal/errors"
	"arkaive/internal/job"
	"arkaive/pkg/log"
)

// usageError marks a mistake on the command line.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	configPath string
	logLevel   string
}

func (o *options) addFlags(f *pflag.FlagSet) {
	f.StringVar(&o.configPath, "config", "", "path to the config file (default <user config dir>/arkaive/config.toml)")
	f.StringVar(&o.logLevel, "log-level", "", "override the log level from the config file")
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "arkaive",
		Short: "Archive configured directories as .tar.gz files",
		Long: `
arkaive reads the archives listed in its config file and writes each input
directory as <output>/<name>.tar.gz. Archives are written one at a time and the
run stops at the first failure.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	opts.addFlags(cmd.Flags())
	return cmd
}

func run(opts options) error {
	path := opts.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(afero.NewOsFs(), path)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := log.New(cfg.Log)
	logger.Debug().Str("config", path).Msg("config loaded")

	_, err = job.NewRunner(cfg, logger).Run()
	return err
}

func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		return 2
	default:
		return 1
	}
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "arkaive: %v\n", err)
	}
	os.Exit(exitCode(err))
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags for all commands.
//
// Flag values are resolved through viper before any command runs, so each
// can also come from a CHAINSIM_* environment variable or from
// chainsim.yaml. Flags win over the environment, which wins over the file.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit config file

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config keys shared by flags, environment and config file.
const (
	keyVerbose   = "verbose"
	keyFormat    = "format"
	keyDB        = "db"
	keyGoldenDir = "golden_dir"
)

// NewRootCommand creates the root command for the chainsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "chainsim",
		Short: "chainsim - a local smart-contract chain",
		Long: `Run smart-contract scenarios on a local chain-state runtime.

Contracts are deployed from built-ins or compiled wasm, transactions run
with full inline-action and notification dispatch, and every execution
trace is recorded in a SQLite trace log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./chainsim.yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewNameCommand(opts))

	return cmd
}

// load binds the executing command's flags and reads the environment and
// config file.
func (o *RootOptions) load(cmd *cobra.Command) error {
	if o.v == nil {
		o.v = viper.New()
	}
	v := o.v

	v.SetEnvPrefix("CHAINSIM")
	v.AutomaticEnv()

	flags := map[string]string{
		keyVerbose:   "verbose",
		keyFormat:    "format",
		keyDB:        "db",
		keyGoldenDir: "golden-dir",
	}
	for key, name := range flags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	if o.Config != "" {
		v.SetConfigFile(o.Config)
	} else {
		v.SetConfigName("chainsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.Config != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	o.Verbose = v.GetBool(keyVerbose)
	o.Format = v.GetString(keyFormat)
	return nil
}

// setting returns the resolved value of key. Commands built without the
// root command have no viper instance and use their flag value.
func (o *RootOptions) setting(key, flagValue string) string {
	if o.v == nil {
		return flagValue
	}
	return o.v.GetString(key)
}

// Logger returns a text logger on w at Info, or Debug with --verbose.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

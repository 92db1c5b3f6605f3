// Package cli wires the mdedit command surface: stat, validate, apply,
// watch and serve. stat, validate and apply each print one indented JSON
// record to stdout and exit non-zero when the record carries ok: false;
// watch prints one record per validation and serve speaks MCP on stdio.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jlrickert/mdedit/pkg/log"
)

// Version is stamped by the build.
var Version = "0.1.0"

// ErrResultNotOK signals a rendered ok:false result. The JSON has already
// been printed; main only needs the non-zero exit.
var ErrResultNotOK = errors.New("result not ok")

// NewRootCmd builds the root cobra command and wires persistent flags and
// configuration. PersistentPreRunE installs a logger on the command context
// only when the incoming context does not already carry one, so tests can
// inject their own via cmd.SetContext.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "mdedit",
		Short: "deterministic, structure-aware markdown editing",
		Long: `mdedit parses a markdown file into a structural model (sections, code
blocks, tables, YAML front matter) and applies batches of declarative edit
operations against it, gated by a SHA-256 precondition.

Results are printed as indented JSON on stdout; a result with ok: false
exits non-zero.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig(cfgFile)

			if log.FromContext(cmd.Context()) != slog.Default() {
				return nil
			}

			level := log.ParseLevel(viper.GetString("log_level"))
			if viper.GetBool("verbose") {
				level = log.ParseLevel("debug")
			}
			lg, _, err := log.NewLogger(log.LoggerConfig{
				Version: Version,
				Out:     cmd.ErrOrStderr(),
				Level:   level,
				JSON:    viper.GetBool("log_json"),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(log.ContextWithLogger(cmd.Context(), lg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mdedit.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_json", cmd.PersistentFlags().Lookup("log-json"))

	cmd.AddCommand(NewStatCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewApplyCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}

// initConfig reads the config file and environment. Keys: format, verbose,
// log_json, log_level, ensure_final_newline.
func initConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("mdedit")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MDEDIT")
	viper.AutomaticEnv()

	viper.SetDefault("format", "none")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("ensure_final_newline", true)

	// Missing config files are fine; the defaults stand.
	_ = viper.ReadInConfig()
}

// Execute runs the CLI against ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// writeJSON renders v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeResult renders a result record and maps ok: false to the non-zero
// exit sentinel.
func writeResult(cmd *cobra.Command, v any, ok bool) error {
	if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
		return err
	}
	if !ok {
		return ErrResultNotOK
	}
	return nil
}

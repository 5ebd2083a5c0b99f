// Package cli provides the quasiscf command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "quasiscf",
		Short: "Reduce linear time-varying DAEs to QuasiSCF",
		Long: `quasiscf reduces a regular linear time-varying DAE E(t)x'(t) = F(t)x(t)
to its QuasiSCF with exact symbolic arithmetic and assembles the canonical
projector onto the DAE-free subspace.

The built-in example pairs are listed by "quasiscf list".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
			if cfg.File() != "" {
				logger.Debug("using config file", "path", cfg.File())
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.StringP("output", "o", "", "Output format (text|latex|json|yaml)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.BoolP("verbose", "v", false, "Verbose output, same as --log-level debug")
	pf.Int("workers", 0, "Number of pairs reduced concurrently")
	pf.String("orientation", "", "Nilpotent pattern orientation (column|row)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputLaTeX, config.OutputJSON, config.OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("orientation", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"column", "row"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewReduceCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// Execute runs the root command and reports failures on stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		return err
	}
	return nil
}

func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	var de *dae.Error
	if errors.As(err, &de) {
		for _, d := range de.Diagnostics {
			_, _ = fmt.Fprintf(w, "  %s = %s\n", d.Name, d.Matrix)
		}
	}
}

// getConfig retrieves the config stored by the root command.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	c, err := config.Load("", nil)
	if err != nil {
		panic(fmt.Sprintf("cli: default config: %v", err))
	}
	return c
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

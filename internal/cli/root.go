// Package cli contains the shopctl commands.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/output"
	"shopping-assistant/internal/session"
)

var (
	cfgFile   string
	colorFlag string
	verbose   bool
	app       *App
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Terminal client for the shopping assistant",
	Long: `shopctl talks to the shopping-assistant backend: ask for product
recommendations in a chat, browse your chat history and manage carts.

Example usage:
  shopctl login --email me@example.com
  shopctl chat                      # interactive chat
  shopctl chat send "여름 셔츠 추천"   # one-shot message
  shopctl history                   # chats grouped by day
  shopctl cart list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "colorize output: auto, always or never")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging on stderr")
}

func initApp(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.NewInvalidInputError("config", err.Error())
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if cfg.App.Version == "dev" {
		cfg.App.Version = version
	}

	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		return errors.NewInvalidInputError("color", err.Error())
	}

	app, err = NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errors.ExitSuccess
	}

	var stdErr *errors.StandardError
	if !stderrors.As(err, &stdErr) {
		// cobra reports flag and argument problems as plain errors.
		fmt.Fprintf(stderr, "Error: %s\n", err.Error())
		return errors.ExitUsageError
	}

	handler := errors.NewErrorHandler(logger.NewNoOpLogger())
	if app != nil {
		handler = app.Errors
	}
	return handler.HandleCommandError(stderr, rootCmd.Name(), err)
}

// restore loads the logged-in user's state or fails with NOT_AUTHENTICATED.
func restore(cmd *cobra.Command) (*session.State, error) {
	return app.Sessions.Restore(cmd.Context())
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// Command vocabexam generates the daily vocabulary exam and its answer key and
// delivers both documents to a chat destination.
//
// Exit codes: 0 = success, 1 = generation or other error, 2 = configuration
// error, 3 = delivery error (documents are kept in the output directory).
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-vocab/internal/delivery"
	"github.com/p-n-ai/pai-vocab/internal/platform/config"
	"github.com/p-n-ai/pai-vocab/internal/platform/logging"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		slog.Error("vocabexam failed", "error", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var cerr *config.ConfigurationError
	if errors.As(err, &cerr) {
		return 2
	}
	var derr *delivery.DeliveryError
	if errors.As(err, &derr) {
		return 3
	}
	return 1
}

// cli carries state shared by the subcommands once the root pre-run has
// loaded the configuration.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "vocabexam",
		Short: "Daily English vocabulary exam generator",
		Long: `vocabexam samples the vocabulary store, renders a five-section exam with
its answer key and posts both documents to Telegram, Slack or a WebSocket relay.

Configuration comes from VOCAB_* environment variables, optionally on top of a
YAML file named by --config or VOCAB_CONFIG_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd.Annotations[annotationDelivers] == "true")
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		c.runCmd(),
		c.serveCmd(),
		c.previewCmd(),
		c.readingCmd(),
		c.addWordCmd(),
		c.migrateCmd(),
	)
	return root
}

// annotationDelivers marks subcommands that post to the destination and so
// need its credentials.
const annotationDelivers = "delivers"

func (c *cli) load(delivers bool) error {
	if c.configPath != "" {
		if err := os.Setenv("VOCAB_CONFIG_PATH", c.configPath); err != nil {
			return fmt.Errorf("setting config path: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	validate := cfg.ValidateLocal
	if delivers {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return err
	}

	logging.New(cfg.Log)
	c.cfg = cfg
	return nil
}

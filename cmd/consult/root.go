package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fuo-consult-server/internal/config"
	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/logging"
)

// cli holds the state shared by all subcommands.
type cli struct {
	configPath string
	verbose    bool

	cfg    *domain.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "consult",
		Short: "Fever of unknown origin consult assistant",
		Long: `consult ranks a differential diagnosis for fever of unknown origin from a
structured intake, builds a tiered diagnostic plan and renders the consult note.

Thresholds and the knowledge base come from the same configuration the servers use
(config.yaml or FUO_* environment variables).`,
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default: search ./config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	root.AddCommand(
		newEvaluateCmd(c),
		newConditionsCmd(c),
		newValidateKBCmd(c),
		newExportKBCmd(c),
		newSetupCmd(c),
	)

	return root
}

func (c *cli) init(cmd *cobra.Command, args []string) error {
	var (
		manager *config.Manager
		err     error
	)
	if c.configPath != "" {
		manager, err = config.NewManagerFromFile(c.configPath)
	} else {
		manager, err = config.NewManager()
	}
	if err != nil {
		return err
	}
	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	c.cfg = manager.GetConfig()

	c.logger, err = logging.NewWithOutput(c.cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if c.verbose {
		c.logger.SetLevel(logrus.DebugLevel)
	} else {
		c.logger.SetLevel(logrus.WarnLevel)
	}

	return nil
}

// knowledgeBase loads the file named by path, falling back to the configured base.
func (c *cli) knowledgeBase(path string) (*knowledge.Base, error) {
	kcfg := c.cfg.Knowledge
	if path != "" {
		kcfg.Path = path
	}
	return knowledge.FromConfig(kcfg)
}

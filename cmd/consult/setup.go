package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuo-consult-server/internal/setup"
)

func newSetupCmd(c *cli) *cobra.Command {
	var clientConfig string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop MCP client",
	}
	cmd.PersistentFlags().StringVar(&clientConfig, "client-config", "", "client configuration file (default: platform location)")

	var opts setup.RegisterOptions
	register := &cobra.Command{
		Use:   "register",
		Short: "Add or update the fuo-consult entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = clientConfig
			if opts.KnowledgePath == "" {
				opts.KnowledgePath = c.cfg.Knowledge.Path
			}
			entry, err := setup.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s -> %s\n", setup.ServerKey, entry.Command)
			return nil
		},
	}
	register.Flags().StringVar(&opts.BinaryPath, "binary", "", "path to "+setup.BinaryName+" (default: search PATH)")
	register.Flags().StringVar(&opts.KnowledgePath, "kb", "", "YAML knowledge base for the server")
	register.Flags().StringVar(&opts.LogLevel, "log-level", "", "server log level")

	unregister := &cobra.Command{
		Use:   "unregister",
		Short: "Remove the fuo-consult entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := setup.Unregister(clientConfig)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", setup.ServerKey)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", setup.ServerKey)
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup.GetStatus(clientConfig)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client config: %s\n", st.ConfigPath)
			fmt.Fprintf(out, "Registered:    %t\n", st.Registered)
			if st.ServerPath != "" {
				fmt.Fprintf(out, "Server binary: %s\n", st.ServerPath)
			}
			if st.Knowledge != "" {
				fmt.Fprintf(out, "Knowledge:     %s\n", st.Knowledge)
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "  ! %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(register, unregister, status)
	return cmd
}

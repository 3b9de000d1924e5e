package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/service"
)

func newConditionsCmd(c *cli) *cobra.Command {
	var (
		category      string
		knowledgePath string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "List the conditions in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := c.knowledgeBase(knowledgePath)
			if err != nil {
				return err
			}

			views := service.NewConsultService(c.logger, kb, c.cfg.Clinical, nil).Conditions()
			if category != "" {
				filtered := views[:0]
				for _, v := range views {
					if v.Category == category {
						filtered = append(filtered, v)
					}
				}
				views = filtered
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tTRIGGERS\tGATES")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", v.Name, v.Category, len(v.Triggers), strings.Join(v.Gates, "; "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	cmd.Flags().StringVar(&knowledgePath, "kb", "", "YAML knowledge base overriding the configured one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func newValidateKBCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-kb [file]",
		Short: "Validate a YAML knowledge base",
		Long:  "Load and validate a YAML knowledge base. Without a file the configured knowledge base is checked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			kb, err := c.knowledgeBase(path)
			if err != nil {
				return err
			}

			source := path
			if source == "" {
				source = c.cfg.Knowledge.Path
			}
			if source == "" {
				source = "built-in"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d conditions, %d prior-workup labels)\n",
				source, kb.Len(), len(kb.Rules().PriorWorkupLabels()))
			return nil
		},
	}
}

func newExportKBCmd(c *cli) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export-kb",
		Short: "Write the active knowledge base as YAML",
		Long:  "Write the active knowledge base in the YAML format validate-kb and knowledge.path accept. Useful as a starting point for a custom table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := c.knowledgeBase("")
			if err != nil {
				return err
			}

			data, err := knowledge.Export(kb)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write knowledge base: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Knowledge base written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	return cmd
}

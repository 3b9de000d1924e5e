package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuo-consult-server/internal/export"
	"github.com/fuo-consult-server/internal/service"
)

type evaluateOptions struct {
	input          string
	knowledgePath  string
	rheumSuspicion bool
	toggles        []string
	asJSON         bool
	pretty         bool
	width          int
	outDir         string
	save           bool
}

func newEvaluateCmd(c *cli) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run a consult from a JSON intake",
		Long: `Run the full consult pipeline on a JSON intake and print the consult note.

The intake has the same shape as the body of POST /api/v1/consult:

  {"age": 45, "immune": {"kind": "normal"}, "max_temp_f": 102.5, "heart_rate": 88,
   "fever_days": 9, "exposures": ["Tick Bite (Dog/Wood)"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEvaluate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "-", "intake JSON file, or - for stdin")
	flags.StringVar(&opts.knowledgePath, "kb", "", "YAML knowledge base overriding the configured one")
	flags.BoolVar(&opts.rheumSuspicion, "rheum-suspicion", false, "keep the rheumatologic panel even without a supporting candidate")
	flags.StringSliceVar(&opts.toggles, "toggle", nil, "additional suspicion toggles")
	flags.BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	flags.BoolVar(&opts.pretty, "pretty", false, "print a formatted summary instead of the plain note")
	flags.IntVar(&opts.width, "width", 100, "word wrap width for --pretty")
	flags.StringVar(&opts.outDir, "out", "", "also write the note to a timestamped file in this directory")
	flags.BoolVar(&opts.save, "save", false, "also write the note to a timestamped file in --out, or "+export.DefaultDir())
	cmd.MarkFlagsMutuallyExclusive("json", "pretty")

	return cmd
}

func (c *cli) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	req, err := readConsultRequest(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	if opts.rheumSuspicion {
		req.PlanOptions.RheumatologicSuspicion = true
	}
	req.PlanOptions.Toggles = append(req.PlanOptions.Toggles, opts.toggles...)

	kb, err := c.knowledgeBase(opts.knowledgePath)
	if err != nil {
		return err
	}

	consults := service.NewConsultService(c.logger, kb, c.cfg.Clinical, nil)
	result, err := consults.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	case opts.pretty:
		rendered, err := renderPretty(consultMarkdown(result), opts.width)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	default:
		fmt.Fprint(out, result.Note)
	}

	dir := opts.outDir
	if dir == "" && opts.save {
		dir = export.DefaultDir()
	}
	if dir != "" {
		path, err := export.WriteNote(dir, time.Now(), result.Note)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Note written to %s\n", path)
	}

	return nil
}

func readConsultRequest(stdin io.Reader, input string) (*service.ConsultRequest, error) {
	r := stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("failed to open intake: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req service.ConsultRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse intake: %w", err)
	}
	return &req, nil
}

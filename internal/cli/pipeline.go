package cli

import (
	"fmt"
	"path/filepath"
	"time"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/output"
	"github.com/ariel-frischer/modelverifier/internal/pipeline"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/spf13/cobra"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run verification as a staged pipeline",
		Long: `A pipeline file lists stages with the artifacts each consumes and produces.
Stages run in dependency order; a stage whose inputs did not succeed is
reported as blocked instead of run.`,
		Example: `  # Check a pipeline definition without running it
  modelverifier pipeline validate verify.pipeline.yml

  # Run every stage
  modelverifier pipeline run verify.pipeline.yml --format json

  # Supply an external artifact named in the definition
  modelverifier pipeline run verify.pipeline.yml --input sources=./src`,
		GroupID: GroupVerification,
	}
	cmd.AddCommand(newPipelineRunCmd(), newPipelineValidateCmd())
	return cmd
}

func newPipelineRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pipeline-file>",
		Short: "Run every stage of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runPipeline,
	}
	addProfileFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Report format: text | json | yaml (default from config)")
	cmd.Flags().StringP("output", "o", "", "Write the verify stage reports to a file instead of stdout")
	cmd.Flags().Bool("no-history", false, "Do not record verify stages in the history")
	cmd.Flags().StringToString("input", nil, "External artifact as name=path (repeatable)")
	return cmd
}

func newPipelineValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline-file>",
		Short: "Check a pipeline definition and print its stage order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline(args[0], pipeline.BuildOptions{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pipeline %s is valid. Stage order:\n", args[0])
			for i, name := range p.Order() {
				fmt.Fprintf(out, "  %d. %s\n", i+1, name)
			}
			return nil
		},
	}
}

// buildPipeline parses and builds the definition at path, resolving relative
// paths against the file's directory.
func buildPipeline(path string, opts pipeline.BuildOptions) (*pipeline.Pipeline, error) {
	def, err := pipeline.ParseFile(path)
	if err != nil {
		return nil, clierrors.PipelineInvalid(path, err)
	}
	opts.BaseDir = filepath.Dir(path)
	p, err := pipeline.Build(def, opts)
	if err != nil {
		return nil, clierrors.PipelineInvalid(path, err)
	}
	return p, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := resolveFormat(cmd, cfg)
	if err != nil {
		return err
	}
	sess, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}

	store := openHistory(cmd, cfg)
	if store != nil {
		defer store.Close()
	}

	var reports []*report.Report
	p, err := buildPipeline(path, pipeline.BuildOptions{
		Session: sess,
		OnReport: func(stage string, r *report.Report) {
			reports = append(reports, r)
			if store != nil {
				entry := history.NewEntry(r, absPath(path)+"#"+stage, time.Now())
				history.LogEntry(cmd.Context(), store, entry, cmd.ErrOrStderr())
			}
		},
	})
	if err != nil {
		return err
	}

	inputs, _ := cmd.Flags().GetStringToString("input")
	artifacts := pipeline.NewArtifacts()
	for name, inputPath := range inputs {
		artifacts.Put(pipeline.Artifact{Name: name, Path: inputPath})
	}

	result := p.Run(cmd.Context(), artifacts)
	printStageResults(cmd, result)

	if len(reports) > 0 {
		if err := writeReports(cmd, reports, format); err != nil {
			return err
		}
	}

	if result.Succeeded() {
		return nil
	}
	var incomplete []string
	for _, s := range result.Stages {
		if s.Outcome.Status != pipeline.StatusSucceeded {
			incomplete = append(incomplete, s.Stage)
		}
	}
	return clierrors.PipelineFailed(incomplete)
}

// printStageResults writes one header and status line per stage to stderr so
// that stdout carries only the reports.
func printStageResults(cmd *cobra.Command, result *pipeline.RunResult) {
	out := cmd.ErrOrStderr()
	total := len(result.Stages)
	for i, s := range result.Stages {
		output.PrintStageHeader(out, i+1, total, s.Stage)
		message := s.Outcome.Message
		if s.Err != nil {
			message = s.Err.Error()
		}
		switch s.Outcome.Status {
		case pipeline.StatusSucceeded:
			output.PrintStageSuccess(out, fmt.Sprintf("%s (%s)", message, s.Duration.Round(time.Millisecond)))
		case pipeline.StatusBlocked:
			output.PrintStageBlocked(out, message)
		default:
			output.PrintStageFailure(out, message)
		}
	}
}

// ABOUTME: Batch command embedding texts and printing similarity and projection
// ABOUTME: Runs an in-memory playground to completion without touching saved entries
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/notify"
)

var (
	embedModel       string
	embedInstruction string
	embedExprs       []string
	embedTimeout     time.Duration
)

// NewEmbedCmd creates the embed command
func NewEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed [text]...",
		Short: "Embed texts and compare them",
		Long: `Embed each argument as a text entry (a0, a1, ...), evaluate any
--expr as math entries (b0, b1, ...), then print the similarity matrix
and the 2D projection.

Examples:
  playground embed --model thenlper/gte-large king queen man woman
  playground embed --model text-embedding-3-small --expr "a0 - a2 + a3" king queen man woman
  playground embed --format json cat dog`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(cmd, args, appOptions{})
		},
	}

	cmd.Flags().StringVar(&embedModel, "model", "", "Embedding model (overrides PLAYGROUND_MODEL)")
	cmd.Flags().StringVar(&embedInstruction, "instruction", "", "Instruction for every text (instruction models only)")
	cmd.Flags().StringArrayVar(&embedExprs, "expr", nil, "Math expression over the text entries (repeatable)")
	cmd.Flags().DurationVar(&embedTimeout, "timeout", 2*time.Minute, "Maximum time to wait for all embeddings")

	return cmd
}

type embedOutput struct {
	Model           string                `json:"model"`
	Texts           []textSummary         `json:"texts"`
	Maths           []mathSummary         `json:"maths"`
	Similarity      core.SimilarityMatrix `json:"similarity"`
	Projection      *core.Projection      `json:"projection"`
	ProjectionError string                `json:"projection_error,omitempty"`
	Failures        []string              `json:"failures,omitempty"`
}

type textSummary struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction,omitempty"`
	Text        string `json:"text"`
	Dimension   int    `json:"dimension"`
}

type mathSummary struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Dimension  int    `json:"dimension"`
	Error      string `json:"error,omitempty"`
}

func runEmbed(cmd *cobra.Command, texts []string, opts appOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	recorder := &notify.Recorder{}
	opts.ephemeral = true
	opts.model = embedModel
	opts.notifier = notify.Multi{newNotifier(cmd.ErrOrStderr()), recorder}

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	pg := a.playground

	if pg.Model().IsZero() {
		return errors.New("no model selected: pass --model or set PLAYGROUND_MODEL (see 'playground models')")
	}

	// the empty store is seeded with a0
	for i, text := range texts {
		name := "a0"
		if i > 0 {
			name = pg.AddText(ctx)
		}
		if embedInstruction != "" {
			if err := pg.EditInstruction(ctx, name, embedInstruction); err != nil {
				return err
			}
		}
		if err := pg.EditText(ctx, name, text); err != nil {
			return err
		}
	}
	for _, expr := range embedExprs {
		if err := pg.EditExpression(pg.AddMath(), expr); err != nil {
			return err
		}
	}

	flushCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	if err := pg.Flush(flushCtx); err != nil {
		return fmt.Errorf("embeddings did not finish: %w", err)
	}

	out := embedOutput{
		Model:      pg.Model().Name,
		Texts:      []textSummary{},
		Maths:      []mathSummary{},
		Similarity: pg.Similarity(),
	}
	for _, e := range pg.TextEmbeddings() {
		out.Texts = append(out.Texts, textSummary{Name: e.Name, Instruction: e.Instruction, Text: e.Text, Dimension: len(e.Vector)})
	}
	for _, e := range pg.MathEmbeddings() {
		out.Maths = append(out.Maths, mathSummary{Name: e.Name, Expression: e.Expression, Dimension: len(e.Vector), Error: e.Error})
	}
	p, projErr := pg.Projection()
	if projErr == nil {
		out.Projection = &p
	} else {
		out.ProjectionError = projErr.Error()
	}
	for _, n := range recorder.All() {
		if n.Severity >= notify.Error {
			msg := n.Message
			if n.Err != nil {
				msg += ": " + n.Err.Error()
			}
			out.Failures = append(out.Failures, msg)
		}
	}

	w := cmd.OutOrStdout()
	if useJSON() {
		if err := writeJSON(w, out); err != nil {
			return err
		}
	} else {
		printEntries(w, pg.TextEmbeddings(), pg.MathEmbeddings())
		fmt.Fprintln(w)
		printSimilarity(w, out.Similarity)
		fmt.Fprintln(w)
		printProjection(w, p, projErr)
	}

	if len(out.Failures) > 0 {
		return fmt.Errorf("%d embedding request(s) failed", len(out.Failures))
	}
	return nil
}

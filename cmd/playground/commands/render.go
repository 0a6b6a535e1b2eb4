// ABOUTME: Table and JSON rendering of entries, similarity and projection
// ABOUTME: Shared by the console and the batch embed command
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/models"
)

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// entryStatus summarizes a text entry's lifecycle for display
func entryStatus(e models.TextEmbedding) string {
	switch {
	case e.IsLoading:
		return "loading"
	case e.IsOutdated:
		return "outdated"
	case e.HasVector():
		return "ready"
	case e.Text == "":
		return "empty"
	}
	return "failed"
}

func printEntries(w io.Writer, texts []models.TextEmbedding, maths []models.MathEmbedding) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tKIND\tSTATUS\tDIM\tINPUT\n")
	fmt.Fprintf(tw, "----\t----\t------\t---\t-----\n")
	for _, e := range texts {
		input := e.Text
		if e.Instruction != "" {
			input = "[" + e.Instruction + "] " + e.Text
		}
		fmt.Fprintf(tw, "%s\ttext\t%s\t%s\t%s\n", e.Name, entryStatus(e), dimension(e.Vector), truncate(input, 50))
	}
	for _, e := range maths {
		status := "ready"
		switch {
		case e.Error != "":
			status = "error: " + truncate(e.Error, 30)
		case !e.HasVector():
			status = "empty"
		}
		fmt.Fprintf(tw, "%s\tmath\t%s\t%s\t%s\n", e.Name, status, dimension(e.Vector), truncate(e.Expression, 50))
	}
	tw.Flush()
}

func dimension(v []float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", len(v))
}

func formatScore(score float64, ok bool) string {
	if !ok || math.IsNaN(score) {
		return "-"
	}
	return fmt.Sprintf("%.4f", score)
}

// printSimilarity renders the full symmetric matrix
func printSimilarity(w io.Writer, m core.SimilarityMatrix) {
	if len(m.Names) == 0 {
		fmt.Fprintln(w, "No embeddings with vectors yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t")
	for _, n := range m.Names {
		fmt.Fprintf(tw, "%s\t", n)
	}
	fmt.Fprintln(tw)
	for _, a := range m.Names {
		fmt.Fprintf(tw, "%s\t", a)
		for _, b := range m.Names {
			fmt.Fprintf(tw, "%s\t", formatScore(m.Lookup(a, b)))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func printProjection(w io.Writer, p core.Projection, err error) {
	if err != nil {
		fmt.Fprintf(w, "Projection unavailable: %v\n", err)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tX\tY\tLABEL\n")
	fmt.Fprintf(tw, "----\t-\t-\t-----\n")
	for _, n := range p.Names {
		pt := p.Points[n]
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", n, pt.X, pt.Y, truncate(p.Labels[n], 40))
	}
	tw.Flush()
	fmt.Fprintf(w, "Explained variance: PC1 %.1f%%, PC2 %.1f%% (total %.1f%%)\n",
		p.ExplainedVariance[0]*100, p.ExplainedVariance[1]*100, p.TotalExplainedVariance*100)
}

func printModels(w io.Writer, catalog []models.ModelConfig, selected string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\tNAME\tLABEL\tPROVIDER\tINSTRUCTION\n")
	for _, m := range catalog {
		marker := ""
		if m.Name == selected {
			marker = "*"
		}
		instruction := ""
		if m.Instruction {
			instruction = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, m.Name, m.Label, m.Provider, instruction)
	}
	tw.Flush()
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/pairwise-alpha/internal/report"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

func writeResult(w io.Writer, format string, result types.AnalysisResult) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(report.ToReport(result))
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()

		return encoder.Encode(report.ToReport(result))
	default:
		_, err := fmt.Fprintln(w, report.RenderSummary(result))

		return err
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contractiq/coherence/internal/coherence"
)

func newScoreCmd(root *rootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate one project, or a JSON array of projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			a, err := setup(cmd.Context(), cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.close()

			if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
				var batch []coherence.ProjectFacts
				if err := json.Unmarshal(trimmed, &batch); err != nil {
					return fmt.Errorf("parse projects: %w", err)
				}
				reports, err := a.service.EvaluateBatch(cmd.Context(), batch)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), reports)
			}

			var facts coherence.ProjectFacts
			if err := json.Unmarshal(data, &facts); err != nil {
				return fmt.Errorf("parse project: %w", err)
			}
			report, err := a.service.Evaluate(cmd.Context(), facts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&input, "file", "f", "", "project facts JSON file (- for stdin)")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/conf"
)

func newDetectCmd(root *rootOptions) *cobra.Command {
	var (
		input     string
		score     float64
		documents int
		now       string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run anti-gaming detection over a JSON array of events",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			var events []antigaming.AlertEvent
			if err := json.Unmarshal(data, &events); err != nil {
				return fmt.Errorf("parse events: %w", err)
			}

			settings, err := conf.Load(root.configFile)
			if err != nil {
				return err
			}

			var in antigaming.Inputs
			if cmd.Flags().Changed("score") {
				in.Score = &score
			}
			if cmd.Flags().Changed("documents") {
				in.DocumentCount = &documents
			}
			if now != "" {
				ts, err := antigaming.ParseTimestamp(now)
				if err != nil {
					return fmt.Errorf("invalid --now value: %w", err)
				}
				in.Now = &ts
			}

			verdict := antigaming.NewDetector(settings.AntiGamingConfig()).Detect(events, in)
			return writeJSON(cmd.OutOrStdout(), verdict)
		},
	}

	cmd.Flags().StringVarP(&input, "file", "f", "", "events JSON file (- for stdin)")
	cmd.Flags().Float64Var(&score, "score", 0, "current coherence score")
	cmd.Flags().IntVar(&documents, "documents", 0, "number of documents backing the score")
	cmd.Flags().StringVar(&now, "now", "", "reference time (RFC 3339, UTC when no offset; default latest event)")
	return cmd
}

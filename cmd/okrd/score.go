package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/okrd/internal/coach"
	"github.com/fyrsmithlabs/okrd/internal/session"
	"github.com/fyrsmithlabs/okrd/internal/snapshot"
)

func newScoreCmd() *cobra.Command {
	var objective string
	var keyResults []string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an OKR draft without starting a server",
		Long: `Score an objective and its key results against the quality rubric and
print the result as JSON.

Examples:
  okrd score --objective "Become the most trusted platform for SMB payments" \
    --kr "Increase MAU from 10K to 20K by Q2 2026" \
    --kr "Reduce churn from 5% to 3% by Q2 2026"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if objective == "" && len(keyResults) == 0 {
				return fmt.Errorf("provide --objective and/or at least one --kr")
			}

			snaps, err := snapshot.NewManager(snapshot.NewMemoryStore(), zap.NewNop())
			if err != nil {
				return err
			}
			svc, err := coach.NewService(coach.Options{
				Store:     session.NewMemoryStore(),
				Snapshots: snaps,
				Logger:    zap.NewNop(),
			})
			if err != nil {
				return err
			}

			scores := svc.ScoreDraft(objective, keyResults)
			out, err := json.MarshalIndent(scores, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&objective, "objective", "", "objective text to score")
	cmd.Flags().StringArrayVar(&keyResults, "kr", nil, "key result text to score (repeatable)")
	return cmd
}

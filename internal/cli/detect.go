package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adstate-project/adstate/internal/changelog"
	"github.com/adstate-project/adstate/internal/diff"
	"github.com/adstate-project/adstate/pkg/errclass"
)

var (
	detectInput  string
	detectAppend bool
	detectSave   bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect changes between the stored snapshot and a fresh record",
	Long: `Detect changes between the stored snapshot and a fresh record.

The raw record is normalized and diffed against the last saved snapshot.
With --append the detected changes are appended to the campaign changelog
(re-running with the same result is a no-op). With --save the normalized
record also replaces the stored snapshot, so the next detection starts
from the post-change state.

Examples:
  adstate detect --input campaign.json
  adstate detect --input campaign.json --append --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		curr, err := normalizeInput(detectInput)
		if err != nil {
			return err
		}

		prev, err := e.snaps.Load(cmd.Context(), curr.AccountID, curr.CampaignID)
		if errors.Is(err, errclass.ErrSnapshotNotFound) {
			return fmt.Errorf("no previous snapshot for %s/%s; run \"adstate snapshot save\" first",
				curr.AccountID, curr.CampaignID)
		}
		if err != nil {
			return err
		}

		engine := diff.NewEngine(e.cfg.Diff.MinDeltaMicros, e.cfg.Diff.MinDeltaPercent)
		records, err := engine.Diff(prev, curr, time.Now().UTC())
		if err != nil {
			return err
		}
		e.log.Info("change detection complete",
			zap.String("account_id", curr.AccountID),
			zap.String("campaign_id", curr.CampaignID),
			zap.Int("changes", len(records)))

		entries := changelog.FromRecords(records)
		if detectAppend && len(entries) > 0 {
			if err := e.logs.Append(cmd.Context(), curr.AccountID, curr.CampaignID, entries); err != nil {
				return err
			}
		}
		if detectSave {
			if err := e.snaps.Save(cmd.Context(), curr); err != nil {
				return err
			}
		}

		if jsonOutput {
			return outputJSON(records)
		}
		if len(entries) == 0 {
			fmt.Println("No structural changes detected.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("  • %s\n", entry.Text)
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectInput, "input", "", "raw campaign record JSON file")
	detectCmd.Flags().BoolVar(&detectAppend, "append", false, "append detected changes to the changelog")
	detectCmd.Flags().BoolVar(&detectSave, "save", false, "replace the stored snapshot with this record")
	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

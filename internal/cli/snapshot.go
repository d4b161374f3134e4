package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adstate-project/adstate/internal/normalize"
	"github.com/adstate-project/adstate/pkg/model"
)

var (
	snapshotInput    string
	snapshotAccount  string
	snapshotCampaign string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage campaign snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Normalize a raw campaign record and save it as the current snapshot",
	Long: `Normalize a raw campaign record and save it as the current snapshot.

The input file holds one fetcher-shaped campaign record as JSON. The saved
snapshot fully replaces the previous one for that (account, campaign); the
next change detection diffs against it.

Examples:
  adstate snapshot save --input campaign.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		snap, err := normalizeInput(snapshotInput)
		if err != nil {
			return err
		}
		if err := e.snaps.Save(cmd.Context(), snap); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(snap)
		}
		fmt.Printf("Saved snapshot for %s/%s (%d keywords, %d ad groups)\n",
			snap.AccountID, snap.CampaignID, len(snap.Keywords), len(snap.AdGroups))
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored snapshot for a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		snap, err := e.snaps.Load(cmd.Context(), snapshotAccount, snapshotCampaign)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(snap)
		}
		fmt.Printf("Campaign %s (%s) captured %s\n", snap.CampaignID, snap.CampaignName,
			snap.CapturedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Status: %s  Budget: $%.2f/day  Bidding: %s\n",
			snap.Status, model.MicrosToDollars(snap.BudgetMicros), snap.BiddingStrategy)
		fmt.Printf("  Keywords: %d  Ad groups: %d  Ads: %d\n",
			len(snap.Keywords), len(snap.AdGroups), len(snap.Ads))
		return nil
	},
}

func normalizeInput(path string) (*model.CampaignSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var raw model.RawCampaignRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return normalize.Normalize(&raw, time.Now().UTC())
}

func init() {
	snapshotSaveCmd.Flags().StringVar(&snapshotInput, "input", "", "raw campaign record JSON file")
	snapshotSaveCmd.MarkFlagRequired("input")

	snapshotShowCmd.Flags().StringVar(&snapshotAccount, "account", "", "account ID")
	snapshotShowCmd.Flags().StringVar(&snapshotCampaign, "campaign", "", "campaign ID")
	snapshotShowCmd.MarkFlagRequired("account")
	snapshotShowCmd.MarkFlagRequired("campaign")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adstate-project/adstate/internal/changelog"
)

var (
	logAccount  string
	logCampaign string
	logSince    string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage the campaign changelog",
}

var logAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Append a manual note to the changelog",
	Long: `Append a manual note to the changelog.

Manual notes record operator context that change detection cannot see
(experiments started, external events, rationale for changes).

Examples:
  adstate log add --account 9660434837 --campaign 22557679902 "Paused brand keywords for budget test"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		note := changelog.NewNote(strings.Join(args, " "), time.Now().UTC())
		if err := e.logs.Append(cmd.Context(), logAccount, logCampaign, []changelog.Entry{note}); err != nil {
			return err
		}
		fmt.Println("Note appended.")
		return nil
	},
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the changelog for a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		since, err := parseSince(logSince)
		if err != nil {
			return err
		}
		entries, err := e.logs.Read(cmd.Context(), logAccount, logCampaign, since)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No changelog entries.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("[%s] (%s) %s\n",
				entry.DetectedAt.UTC().Format("2006-01-02 15:04:05"), entry.Source, entry.Text)
		}
		return nil
	},
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (want RFC3339 or YYYY-MM-DD)", s)
}

func init() {
	for _, c := range []*cobra.Command{logAddCmd, logShowCmd} {
		c.Flags().StringVar(&logAccount, "account", "", "account ID")
		c.Flags().StringVar(&logCampaign, "campaign", "", "campaign ID")
		c.MarkFlagRequired("account")
		c.MarkFlagRequired("campaign")
	}
	logShowCmd.Flags().StringVar(&logSince, "since", "", "only entries at or after this time")

	logCmd.AddCommand(logAddCmd)
	logCmd.AddCommand(logShowCmd)
	rootCmd.AddCommand(logCmd)
}

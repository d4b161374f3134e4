package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adstate-project/adstate/internal/contextfmt"
)

var (
	contextAccount  string
	contextCampaign string
	contextMax      int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Render recent changelog entries as report context",
	Long: `Render recent changelog entries as report context.

Produces the compact text block the report generator ingests: the most
recent entries, oldest first, with anything older summarized away.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		entries, err := e.logs.Read(cmd.Context(), contextAccount, contextCampaign, time.Time{})
		if err != nil {
			return err
		}

		max := contextMax
		if max == 0 {
			max = e.cfg.Context.MaxEntries
		}
		fmt.Print(contextfmt.Format(entries, max))
		return nil
	},
}

func init() {
	contextCmd.Flags().StringVar(&contextAccount, "account", "", "account ID")
	contextCmd.Flags().StringVar(&contextCampaign, "campaign", "", "campaign ID")
	contextCmd.Flags().IntVar(&contextMax, "max", 0, "max entries (0 = config default)")
	contextCmd.MarkFlagRequired("account")
	contextCmd.MarkFlagRequired("campaign")
	rootCmd.AddCommand(contextCmd)
}

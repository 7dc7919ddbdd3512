package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/onestep/internal/domain"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List or remove wins",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finished tasks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		svc := st.journalService()
		entries, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		streak, err := svc.Streak(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no wins yet")
		} else {
			writeEntries(out, entries)
		}
		if streak > 0 {
			fmt.Fprintf(out, "\nstreak: %d day(s)\n", streak)
		}
		return nil
	},
}

var journalRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove one win",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		if err := st.journalService().Delete(cmd.Context(), domain.JournalEntryID(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

func init() {
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalRmCmd)
}

func writeEntries(w io.Writer, entries []*domain.JournalEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTASK\tMESSAGES\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Date, e.Task, e.MessageCount, e.ID)
	}
	_ = tw.Flush()
}

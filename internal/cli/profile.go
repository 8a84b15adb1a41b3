package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/0xdurkle/rover/internal/daemon"
)

func init() {
	profileCmd.Flags().IntVar(&profileLimit, "limit", 25, "How many history entries to show")
	rootCmd.AddCommand(profileCmd)
}

var profileLimit int

var profileCmd = &cobra.Command{
	Use:   "profile EXPLORER",
	Short: "Show an explorer's completions and loot history",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	profile, err := d.DB.Profile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d completed expeditions", profile.OwnerID, profile.TotalCompleted)
	if !profile.LastCompletionAt.IsZero() {
		fmt.Printf(", last at %s", profile.LastCompletionAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()

	history, err := d.DB.LootHistory(args[0], profileLimit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("No loot yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tRARITY\tCATEGORY\tRESOLVED")
	for _, o := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			o.Name, o.Rarity, o.Category, o.ResolvedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

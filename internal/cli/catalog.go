package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/daemon"
)

func init() {
	catalogOddsCmd.Flags().IntVar(&oddsGroupSize, "group-size", 1, "Party size for the bonus calculation")
	catalogCmd.AddCommand(catalogOddsCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List expedition categories",
	RunE:  runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	snap := d.Catalog.Snapshot()
	for _, name := range snap.CategoryNames() {
		c, _ := snap.Category(name)
		fmt.Printf("%s (%d items)\n", name, len(c.Items))
	}
	return nil
}

var oddsGroupSize int

var catalogOddsCmd = &cobra.Command{
	Use:   "odds CATEGORY DURATION",
	Short: "Show adjusted loot probabilities for a category and duration",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogOdds,
}

func runCatalogOdds(cmd *cobra.Command, args []string) error {
	duration, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[1], err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	odds, err := loot.AdjustedOdds(d.Catalog.Snapshot(), args[0], duration, oddsGroupSize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tRARITY\tPROBABILITY")
	for _, o := range odds {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", o.Item.Name, o.Item.Rarity, o.Probability)
	}
	return w.Flush()
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xdurkle/rover/internal/daemon"
)

func init() {
	rootCmd.AddCommand(activeCmd)
}

var activeCmd = &cobra.Command{
	Use:   "active EXPLORER",
	Short: "Show an explorer's current expedition",
	Args:  cobra.ExactArgs(1),
	RunE:  runActive,
}

func runActive(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	e, err := d.Expeditions.Active(args[0])
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Printf("%s has no active expedition.\n", args[0])
		return nil
	}

	remaining := time.Until(e.EndsAt).Round(time.Second)
	fmt.Printf("%s is exploring %s — back in %s (at %s)\n",
		e.OwnerID, e.Category, remaining, e.EndsAt.Format("15:04:05"))
	return nil
}

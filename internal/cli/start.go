package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xdurkle/rover/internal/daemon"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start EXPLORER CATEGORY DURATION",
	Short: "Start a solo expedition",
	Long: `Start a solo expedition for an explorer. DURATION is in units
(hours); fractional values are allowed.`,
	Args: cobra.ExactArgs(3),
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	duration, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[2], err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	e, err := d.Expeditions.Start(args[0], args[1], duration)
	if err != nil {
		return err
	}

	fmt.Printf("Expedition %s started: %s exploring %s, back at %s\n",
		e.ID, e.OwnerID, e.Category, e.EndsAt.Format("2006-01-02 15:04:05"))
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xdurkle/rover/internal/daemon"
)

func init() {
	partyCmd.AddCommand(partyCreateCmd)
	partyCmd.AddCommand(partyJoinCmd)
	partyCmd.AddCommand(partyShowCmd)
	rootCmd.AddCommand(partyCmd)
}

var partyCmd = &cobra.Command{
	Use:   "party",
	Short: "Create, join, and inspect group expeditions",
}

var partyCreateCmd = &cobra.Command{
	Use:   "create CREATOR CATEGORY DURATION",
	Short: "Open a new party with a join window",
	Args:  cobra.ExactArgs(3),
	RunE:  runPartyCreate,
}

func runPartyCreate(cmd *cobra.Command, args []string) error {
	duration, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[2], err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Parties.Create(args[0], args[1], duration)
	if err != nil {
		return err
	}

	fmt.Printf("Party %s formed for %s. Joining open until %s.\n",
		p.ID, p.Category, p.JoinDeadline.Format("15:04:05"))
	return nil
}

var partyJoinCmd = &cobra.Command{
	Use:   "join PARTY EXPLORER",
	Short: "Join a forming party",
	Args:  cobra.ExactArgs(2),
	RunE:  runPartyJoin,
}

func runPartyJoin(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Parties.Join(args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("%s joined party %s (%d members).\n", args[1], p.ID, len(p.Members))
	return nil
}

var partyShowCmd = &cobra.Command{
	Use:   "show PARTY",
	Short: "Show a party's state",
	Args:  cobra.ExactArgs(1),
	RunE:  runPartyShow,
}

func runPartyShow(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Parties.Get(args[0])
	if err != nil {
		return err
	}

	state := "forming"
	switch {
	case p.Completed:
		state = "completed"
	case p.Started:
		state = "underway"
	}
	fmt.Printf("Party %s — %s, %s, %d members\n", p.ID, p.Category, state, len(p.Members))
	for _, m := range p.Members {
		fmt.Printf("  %s (joined %s)\n", m.OwnerID, m.JoinedAt.Format("15:04:05"))
	}
	if p.Started && p.Outcome != nil {
		fmt.Printf("Outcome: %s (%s)\n", p.Outcome.Name, p.Outcome.Rarity)
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rbftrack/internal/store"
)

var (
	queryDB     string
	queryLatest bool
	queryLimit  int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspect recorded replacements and change mappings",
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent replacement events",
	RunE:  runQueryList,
}

var queryChangeCmd = &cobra.Command{
	Use:   "change-address <address>",
	Short: "List the input addresses recorded for a change address",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryChange,
}

var queryInputCmd = &cobra.Command{
	Use:   "input-address <address>",
	Short: "List the change addresses an input address funded",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryInput,
}

var queryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate replacement and mapping statistics",
	RunE:  runQueryStats,
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryDB, "db", "mempool.db", "path to the tracker database file")
	queryCmd.PersistentFlags().BoolVar(&queryLatest, "latest", false, "restrict to the most recent replacement only")
	queryListCmd.Flags().IntVar(&queryLimit, "limit", 10, "maximum number of events to list")

	queryCmd.AddCommand(queryListCmd)
	queryCmd.AddCommand(queryChangeCmd)
	queryCmd.AddCommand(queryInputCmd)
	queryCmd.AddCommand(queryStatsCmd)
}

func runQueryList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(queryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := queryLimit
	if queryLatest {
		limit = 1
	}

	rows, err := st.RecentReplacements(limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no replacement events found")
		return nil
	}

	for _, r := range rows {
		fmt.Printf("%s: %s -> %s, change address %s[#%d] (diff %d)\n",
			r.DetectedAt.Format(time.RFC3339),
			r.OrigTxid, r.NewTxid, r.ChangeAddress, r.ChangeVoutIndex, r.Diff)
	}
	return nil
}

func runQueryChange(cmd *cobra.Command, args []string) error {
	st, err := store.Open(queryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	changeAddr := args[0]
	inputs, err := st.InputsForChange(changeAddr, queryLatest)
	if err != nil && !errors.Is(err, store.ErrNoRows) {
		return err
	}
	if len(inputs) == 0 {
		fmt.Printf("no input addresses found for change address %s\n", changeAddr)
		return nil
	}

	fmt.Printf("input addresses for change address %s:\n", changeAddr)
	for _, addr := range inputs {
		fmt.Printf("  %s\n", addr)
	}
	return nil
}

func runQueryInput(cmd *cobra.Command, args []string) error {
	st, err := store.Open(queryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	inputAddr := args[0]
	changes, err := st.ChangesForInput(inputAddr, queryLatest)
	if err != nil && !errors.Is(err, store.ErrNoRows) {
		return err
	}
	if len(changes) == 0 {
		fmt.Printf("no change addresses found for input address %s\n", inputAddr)
		return nil
	}

	fmt.Printf("change addresses for input address %s:\n", inputAddr)
	for _, addr := range changes {
		fmt.Printf("  %s\n", addr)
	}
	return nil
}

func runQueryStats(cmd *cobra.Command, args []string) error {
	st, err := store.Open(queryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	fmt.Println("statistics:")
	fmt.Printf("  total replacement events:        %d\n", stats.TotalReplacements)
	fmt.Printf("  unique change addresses:         %d\n", stats.UniqueChangeAddresses)
	fmt.Printf("  change addresses with >1 event:  %d\n", stats.MultiEventChangeAddresses)
	fmt.Printf("  total change-input mappings:     %d\n", stats.TotalMappings)
	fmt.Printf("  unique input addresses:          %d\n", stats.UniqueInputAddresses)
	return nil
}

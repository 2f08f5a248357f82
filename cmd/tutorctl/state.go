package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "List registered materials and their fragment counts",
	RunE:  runState,
}

func init() {
	stateCmd.Flags().Bool("json", false, "print the full snapshot as JSON")
}

func runState(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Store.ListAll(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	counts := fragmentCounts(snap.KnowledgeBase)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tFRAGMENTS\tREGISTERED")
	for _, m := range snap.Materials {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.ID, m.Name, m.Kind, counts[m.ID], m.RegisteredAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d materials, %d fragments\n", len(snap.Materials), len(snap.KnowledgeBase))
	return nil
}

func fragmentCounts(frags []knowledge.Fragment) map[string]int {
	counts := make(map[string]int)
	for _, f := range frags {
		counts[f.MaterialID]++
	}
	return counts
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/pipeline"
)

// collectionCmd は、オーナーの Kiosk に入っているコミックの一覧を表示するのだ。
var collectionCmd = &cobra.Command{
	Use:     "collection [owner]",
	Short:   "オーナーが保有するコミックの一覧を表示しますなのだ。",
	Example: `  comic-kit collection 0x1234...`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := ""
		if len(args) == 1 {
			owner = args[0]
		}
		comics, err := pipeline.ExecuteCollection(cmd.Context(), loadConfig(), owner)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tISSUE\tTITLE\tBLOB\tCOVER")
		for _, c := range comics {
			fmt.Fprintf(w, "%s\t#%d\t%s\t%s\t%s\n", c.ID, c.IssueNumber, c.Title, c.BlobID, c.CoverURL)
		}
		return w.Flush()
	},
}

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/pipeline"
)

// exportCmd は、Walrus に保存されたマニフェストから PDF を書き出すのだ。
var exportCmd = &cobra.Command{
	Use:     "export <blob-id>",
	Short:   "Walrus のマニフェストから PDF と台本を書き出しますなのだ。",
	Example: `  comic-kit export AbCd... -o output/issue-1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteExport(cmd.Context(), loadConfig(), args[0]); err != nil {
			return err
		}
		slog.Info("書き出しが完了したのだ！", "output", opts.OutputDir)
		return nil
	},
}

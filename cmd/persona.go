package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/pipeline"
)

// personaCmd は、説明文からヒーローの参照ポートレートを生成するのだ。
var personaCmd = &cobra.Command{
	Use:         "persona",
	Short:       "説明文からヒーローのポートレートを生成しますなのだ。",
	Example:     `  comic-kit persona --hero-desc "a caped walrus hero" -o output`,
	Annotations: map[string]string{"requires": "gemini"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.HeroDesc == "" {
			return fmt.Errorf("ヒーローの説明文 (--hero-desc) を指定してほしいのだ")
		}
		opts.HeroImage = ""
		path, err := pipeline.ExecutePersona(cmd.Context(), loadConfig())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	addStoryFlags(personaCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"
)

// mintCmd はミント系サブコマンドの親なのだ。TEST_MODE と TEST_PRIVATE_KEY が必要なのだ。
var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "ヒーローやコミックを Sui にミントしますなのだ。",
}

var mintHeroCmd = &cobra.Command{
	Use:     "hero <name>",
	Short:   "ヒーロー画像を Walrus に保存して HeroAsset をミントするのだ。",
	Example: `  comic-kit mint hero "Captain Walrus" --hero-image hero.png`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := pipeline.ExecuteMintHero(cmd.Context(), loadConfig(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "hero_id=%s blob_id=%s digest=%s\n", res.HeroID, res.Blob.BlobID, res.Digest)
		return nil
	},
}

var mintComicCmd = &cobra.Command{
	Use:     "comic <manifest.json>",
	Short:   "書き出し済みのマニフェストからコミックをミントするのだ。",
	Example: `  comic-kit mint comic output/comic_manifest.json --mint-mode wallet --hero-id 0x...`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := pipeline.ExecuteMintComic(cmd.Context(), loadConfig(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "issue_id=%s series_id=%s manifest_blob=%s pages=%d digest=%s\n",
			res.IssueID, res.SeriesID, res.Manifest.BlobID, res.Pages, res.Digest)
		return nil
	},
}

func init() {
	mintHeroCmd.Flags().StringVar(&opts.HeroImage, "hero-image", "", "ミントするヒーローの画像ファイルなのだ。")
	mintHeroCmd.Flags().StringVar(&opts.HeroDesc, "hero-desc", "", "ヒーローの説明文なのだ。")

	mintComicCmd.Flags().StringVar(&opts.MintMode, "mint-mode", config.DefaultMintMode, "ミント経路 (free または wallet) なのだ。")
	mintComicCmd.Flags().StringVar(&opts.HeroID, "hero-id", "", "HeroAsset の ID なのだ。未指定ならマニフェストの heroId を使うのだ。")
	mintComicCmd.Flags().StringVarP(&opts.Title, "title", "t", "", "タイトルを上書きするのだ。")

	mintCmd.AddCommand(mintHeroCmd, mintComicCmd)
}

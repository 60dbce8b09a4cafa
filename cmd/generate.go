package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"
)

// generateCmd は、ヒーローからコミック1冊分のページを生成して書き出すのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ヒーローからコミックを生成して PDF に書き出しますなのだ。",
	Long: `ヒーロー画像 (または説明文) を基に、表紙から裏表紙までのページを生成するのだ。
選択肢ページでは最初の選択肢で物語を進めるのだよ。--mint を付けると生成後にミントまで行うのだ。`,
	Example:     `  comic-kit generate --hero-image hero.png --genre "Superhero Action" --mint`,
	Annotations: map[string]string{"requires": "gemini"},
	RunE:        generateCommand,
}

func init() {
	addStoryFlags(generateCmd)
	generateCmd.Flags().StringVar(&opts.CoStarImage, "costar-image", "", "共演者の画像ファイルなのだ。")
	generateCmd.Flags().StringVar(&opts.CoStarDesc, "costar-desc", "", "共演者の説明文なのだ。")
	generateCmd.Flags().StringVar(&opts.OriginFile, "origin-file", "", "原作モードで翻案する Markdown ファイルなのだ。")
	generateCmd.Flags().StringVarP(&opts.Title, "title", "t", config.DefaultTitle, "コミックのタイトルなのだ。")
	generateCmd.Flags().BoolVar(&opts.Mint, "mint", false, "生成後にヒーローとコミックをミントするのだ。")
	generateCmd.Flags().StringVar(&opts.MintMode, "mint-mode", config.DefaultMintMode, "ミント経路 (free または wallet) なのだ。")
	generateCmd.Flags().StringVar(&opts.HeroID, "hero-id", "", "ミント済みの HeroAsset の ID なのだ。未指定ならヒーローもミントするのだ。")
}

// addStoryFlags はヒーローとストーリー設定のフラグを追加するのだ。
func addStoryFlags(c *cobra.Command) {
	c.Flags().StringVar(&opts.HeroImage, "hero-image", "", "ヒーローの画像ファイルなのだ。")
	c.Flags().StringVar(&opts.HeroDesc, "hero-desc", "", "ヒーローの説明文なのだ (画像がなければ生成に使うのだ)。")
	c.Flags().StringVarP(&opts.Genre, "genre", "g", "", "ジャンル名なのだ (例: \"Superhero Action\")。")
	c.Flags().StringVar(&opts.Tone, "tone", "", "語り口なのだ。")
	c.Flags().StringVarP(&opts.Language, "language", "l", "", "台詞の言語なのだ (デフォルト English)。")
	c.Flags().StringVar(&opts.Premise, "premise", "", "Custom ジャンルの前提なのだ。")
	c.Flags().BoolVar(&opts.Rich, "rich", true, "リッチモード (台詞を長めに) なのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if opts.HeroImage == "" && opts.HeroDesc == "" {
		return fmt.Errorf("ヒーロー (--hero-image または --hero-desc) を指定してほしいのだ")
	}

	cfg := loadConfig()
	slog.Info("コミック生成パイプラインを起動するのだ！",
		"genre", opts.Genre,
		"text_model", cfg.Comic.TextModel,
		"image_model", cfg.Comic.ImageModel,
		"output", opts.OutputDir)

	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

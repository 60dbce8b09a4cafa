package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-kit/internal/config"
)

// opts はすべてのサブコマンドで共有する実行時パラメータなのだ。
var opts config.GenerateOptions

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "comic-kit",
	Short: "AI で生成したコミックを Walrus に保存して Sui にミントするのだ。",
	Long: `ヒーローのペルソナから表紙・本編・裏表紙までのコミックを生成し、
PDF への書き出し、Walrus への保存、Sui へのミント、コレクションの閲覧を行うのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "ログレベル (debug, info, warn, error) なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物を保存するディレクトリなのだ。")

	// --- AIモデル設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.TextModel, "model", "", "ビート生成に使う Gemini モデル名なのだ (未指定なら GEMINI_TEXT_MODEL)。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ (未指定なら GEMINI_IMAGE_MODEL)。")
}

// preRunAppE は、コマンド実行前にロガーを設定し、必須の環境変数をチェックするのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	// 生成系のコマンドだけが Gemini API を使うのだ
	if cmd.Annotations["requires"] == "gemini" && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("未知のログレベルなのだ: %q", s)
}

// loadConfig は環境変数の設定に CLI フラグを重ねるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Apply(opts)
	return cfg
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, personaCmd, mintCmd, collectionCmd, exportCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shouni/go-comic-kit/examples"
	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/sui"
)

// Execute は、ヒーローの準備からストーリー生成、書き出し、(指定があれば) ミントまでを一気通貫で実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := appCtx.Options

	settings, err := storySettings(opts)
	if err != nil {
		return err
	}

	// --- Phase 1: Persona Phase (キャラクター準備) ---
	hero, err := runPersonaStep(ctx, appCtx, opts.HeroImage, opts.HeroDesc, settings)
	if err != nil {
		return fmt.Errorf("ヒーローの準備に失敗したのだ: %w", err)
	}
	var coStar *domain.Persona
	if opts.CoStarImage != "" || opts.CoStarDesc != "" {
		coStar, err = runPersonaStep(ctx, appCtx, opts.CoStarImage, opts.CoStarDesc, settings)
		if err != nil {
			return fmt.Errorf("共演者の準備に失敗したのだ: %w", err)
		}
	}

	// --- Phase 2: Story Phase (ページ生成) ---
	origin := ""
	if settings.Genre.IsOriginStory() {
		origin, err = originStory(opts.OriginFile)
		if err != nil {
			return err
		}
	}
	faces, err := runStoryStep(ctx, appCtx, runner.StoryRequest{
		Settings:       settings,
		Hero:           hero,
		CoStar:         coStar,
		OriginMarkdown: origin,
		Observer:       progressLogger(ctx),
	})
	if err != nil {
		return err
	}

	// --- Phase 3: Publish Phase (書き出し) ---
	title := titleOf(opts, settings.Genre)
	manifest, err := publisher.BuildManifest(title, settings.Genre, opts.HeroID, faces, time.Now(), nil)
	if err != nil {
		return err
	}
	if err := runExportStep(ctx, appCtx, manifest); err != nil {
		return err
	}

	// --- Phase 4: Mint Phase (オンチェーン登録) ---
	if !opts.Mint {
		return nil
	}
	heroID := opts.HeroID
	if heroID == "" {
		res, err := runMintHeroStep(ctx, appCtx, hero, title)
		if err != nil {
			return err
		}
		heroID = res.HeroID
	}
	_, err = runMintComicStep(ctx, appCtx, title, settings.Genre, heroID, faces)
	return err
}

// ExecutePersona は説明文からペルソナ画像を生成して保存するのだ。
func ExecutePersona(ctx context.Context, cfg *config.Config) (string, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return "", err
	}
	settings, err := storySettings(appCtx.Options)
	if err != nil {
		return "", err
	}
	p, err := runPersonaStep(ctx, appCtx, appCtx.Options.HeroImage, appCtx.Options.HeroDesc, settings)
	if err != nil {
		return "", err
	}
	path, err := asset.ResolveOutputPath(appCtx.Options.OutputDir, asset.DefaultPersonaFileName)
	if err != nil {
		return "", err
	}
	if err := (publisher.LocalWriter{}).Write(ctx, path, p.ImageData()); err != nil {
		return "", fmt.Errorf("ペルソナ画像の保存に失敗したのだ: %w", err)
	}
	slog.Info("ペルソナ画像を保存したのだ", "path", path)
	return path, nil
}

// ExecuteMintHero はヒーロー画像を読み込んでミントするのだ。
func ExecuteMintHero(ctx context.Context, cfg *config.Config, name string) (*runner.HeroMintResult, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if appCtx.Options.HeroImage == "" {
		return nil, fmt.Errorf("ミントするヒーロー画像 (--hero-image) を指定してほしいのだ")
	}
	hero, err := runPersonaStep(ctx, appCtx, appCtx.Options.HeroImage, appCtx.Options.HeroDesc, domain.DefaultStorySettings())
	if err != nil {
		return nil, err
	}
	return runMintHeroStep(ctx, appCtx, hero, name)
}

// ExecuteMintComic は書き出し済みのマニフェスト JSON を読み込み、コミックとしてミントするのだ。
func ExecuteMintComic(ctx context.Context, cfg *config.Config, manifestPath string) (*runner.ComicMintResult, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("マニフェスト '%s' の読み込みに失敗したのだ: %w", manifestPath, err)
	}
	manifest, err := publisher.DecodeManifest(data)
	if err != nil {
		return nil, err
	}
	heroID := appCtx.Options.HeroID
	if heroID == "" {
		heroID = manifest.HeroID
	}
	title := manifest.Title
	if appCtx.Options.Title != "" {
		title = appCtx.Options.Title
	}
	faces := publisher.Faces(manifest, cfg.Comic.Layout)
	return runMintComicStep(ctx, appCtx, title, manifest.Genre, heroID, faces)
}

// ExecuteCollection はオーナーのコレクション一覧を返すのだ。
func ExecuteCollection(ctx context.Context, cfg *config.Config, owner string) ([]domain.ComicSummary, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if owner == "" && appCtx.Signer != nil {
		owner = appCtx.Signer.Address().String()
	}
	if owner == "" {
		return nil, fmt.Errorf("コレクションのオーナーアドレスを指定してほしいのだ")
	}
	collectionRunner, err := appCtx.Workflow.BuildCollectionRunner()
	if err != nil {
		return nil, err
	}
	comics, err := collectionRunner.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("コレクションの取得に失敗したのだ: %w", err)
	}
	slog.Info("コレクションを取得したのだ", "owner", owner, "comics", len(comics))
	return comics, nil
}

// ExecuteExport は Walrus に保存されたマニフェストを取得して PDF などに書き出すのだ。
func ExecuteExport(ctx context.Context, cfg *config.Config, blobID string) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	collectionRunner, err := appCtx.Workflow.BuildCollectionRunner()
	if err != nil {
		return err
	}
	manifest, err := collectionRunner.LoadManifest(ctx, blobID)
	if err != nil {
		return err
	}
	return runExportStep(ctx, appCtx, manifest)
}

// runPersonaStep は画像があれば取り込み、なければ説明文から生成するのだ
func runPersonaStep(ctx context.Context, appCtx *builder.AppContext, imagePath, desc string, settings domain.StorySettings) (*domain.Persona, error) {
	personaRunner, err := appCtx.Workflow.BuildPersonaRunner()
	if err != nil {
		return nil, err
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("画像 '%s' の読み込みに失敗したのだ: %w", imagePath, err)
		}
		return personaRunner.FromImage(ctx, data, desc)
	}
	if strings.TrimSpace(desc) == "" {
		return nil, fmt.Errorf("画像 (--hero-image) か説明文 (--hero-desc) のどちらかが必要なのだ")
	}
	slog.Info("ペルソナを生成するのだ...", "description", desc)
	return personaRunner.Generate(ctx, desc, settings)
}

// runStoryStep は StoryRunner を使ってページを生成するのだ
func runStoryStep(ctx context.Context, appCtx *builder.AppContext, req runner.StoryRequest) (domain.ComicFaces, error) {
	slog.Info("Phase 2: ストーリー生成を開始するのだ...", "genre", req.Settings.Genre)
	storyRunner, err := appCtx.Workflow.BuildStoryRunner()
	if err != nil {
		return nil, fmt.Errorf("StoryRunnerの構築に失敗したのだ: %w", err)
	}
	faces, err := storyRunner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ストーリー生成に失敗したのだ: %w", err)
	}
	return faces, nil
}

// runExportStep は ExportRunner を使って成果物を保存するのだ
func runExportStep(ctx context.Context, appCtx *builder.AppContext, manifest domain.ComicManifest) error {
	slog.Info("Phase 3: 書き出しを開始するのだ...", "pages", len(manifest.Pages))
	exportRunner, err := appCtx.Workflow.BuildExportRunner()
	if err != nil {
		return fmt.Errorf("ExportRunnerの構築に失敗したのだ: %w", err)
	}
	res, err := exportRunner.Run(ctx, manifest, appCtx.Options.OutputDir)
	if err != nil {
		return fmt.Errorf("書き出しに失敗したのだ: %w", err)
	}
	slog.Info("書き出しが完了したのだ！", "pdf", res.PDFPath, "pages", res.PageCount)
	return nil
}

func runMintHeroStep(ctx context.Context, appCtx *builder.AppContext, hero *domain.Persona, name string) (*runner.HeroMintResult, error) {
	mintRunner, err := appCtx.Workflow.BuildMintHeroRunner()
	if err != nil {
		return nil, fmt.Errorf("MintHeroRunnerの構築に失敗したのだ: %w", err)
	}
	res, err := mintRunner.Run(ctx, hero, name)
	if err != nil {
		return nil, fmt.Errorf("ヒーローのミントに失敗したのだ: %w", err)
	}
	return res, nil
}

func runMintComicStep(ctx context.Context, appCtx *builder.AppContext, title string, genre domain.Genre, heroID string, faces domain.ComicFaces) (*runner.ComicMintResult, error) {
	mode, err := sui.ParseMintMode(appCtx.Options.MintMode)
	if err != nil {
		return nil, err
	}
	mintRunner, err := appCtx.Workflow.BuildMintComicRunner()
	if err != nil {
		return nil, fmt.Errorf("MintComicRunnerの構築に失敗したのだ: %w", err)
	}
	res, err := mintRunner.Run(ctx, runner.ComicMintRequest{
		Title:  title,
		Genre:  genre,
		HeroID: heroID,
		Faces:  faces,
		Mode:   mode,
	})
	if err != nil {
		return nil, fmt.Errorf("コミックのミントに失敗したのだ: %w", err)
	}
	return res, nil
}

// storySettings は CLI オプションを StorySettings に変換するのだ
func storySettings(opts config.GenerateOptions) (domain.StorySettings, error) {
	s := domain.DefaultStorySettings()
	if opts.Genre != "" {
		g, err := domain.ParseGenre(opts.Genre)
		if err != nil {
			return s, err
		}
		s.Genre = g
	}
	if opts.Tone != "" {
		s.Tone = opts.Tone
	}
	if opts.Language != "" {
		s.Language = opts.Language
	}
	s.CustomPremise = opts.Premise
	s.RichMode = opts.Rich
	return s, nil
}

// titleOf は原作モードでタイトルが未指定なら同梱ストーリーのタイトルを使うのだ
func titleOf(opts config.GenerateOptions, genre domain.Genre) string {
	if genre.IsOriginStory() && (opts.Title == "" || opts.Title == config.DefaultTitle) {
		return examples.OriginTitle
	}
	if opts.Title != "" {
		return opts.Title
	}
	return config.DefaultTitle
}

// originStory は原作テキストを読み込むのだ。パスが空なら同梱のストーリーを使うのだ
func originStory(path string) (string, error) {
	if path == "" {
		return examples.OriginStory, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("原作テキスト '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	return string(b), nil
}

// progressLogger はページが完成するたびに進捗をログに出すのだ
func progressLogger(ctx context.Context) func(domain.ComicFaces) {
	var last atomic.Int64
	last.Store(-1)
	return func(faces domain.ComicFaces) {
		done := len(faces.Resolved())
		if last.Swap(int64(done)) == int64(done) {
			return
		}
		slog.DebugContext(ctx, "生成の進捗", "ready", done, "total", len(faces))
	}
}

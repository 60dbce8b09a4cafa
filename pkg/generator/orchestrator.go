package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// coStarFocusThreshold を乱数が超えると、共演者を主役にする指示を出します。
const coStarFocusThreshold = 0.4

var (
	// ErrNoHero は主人公のペルソナが未設定のまま開始しようとしたことを表します。
	ErrNoHero = errors.New("主人公のペルソナが設定されていません")
	// ErrUnknownPage は存在しないページへの操作を表します。
	ErrUnknownPage = errors.New("指定されたページは存在しません")
)

// Observer はページ列が変わるたびにスナップショットを受け取ります。
type Observer func(snapshot domain.ComicFaces)

// Option は Orchestrator の設定を変更します。
type Option func(*Orchestrator)

// WithRandom は共演者フォーカスの抽選に使う乱数源を差し替えます。
func WithRandom(f func() float64) Option {
	return func(o *Orchestrator) { o.randFloat = f }
}

// WithIDGenerator はページ ID の採番を差し替えます。
func WithIDGenerator(f func(page int) string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// WithCredentialHandler は認証エラー時に呼ばれるハンドラを設定します。
// UI ではここで API キー入力を促します。
func WithCredentialHandler(f func(error)) Option {
	return func(o *Orchestrator) { o.onCredentialError = f }
}

// WithRetryPolicy はページ単位のリトライ方針を差し替えます。
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// Orchestrator は1つのストーリーセッションのページ列を唯一の正として保持し、
// ビートと画像を順番に生成します。
type Orchestrator struct {
	beats    *BeatGenerator
	personas *PersonaGenerator
	panels   *PanelGenerator
	selector *ModelSelector
	retry    RetryPolicy
	layout   domain.StoryLayout

	mu        sync.RWMutex
	settings  domain.StorySettings
	origin    []string
	faces     domain.ComicFaces
	hero      *domain.Persona
	coStar    *domain.Persona
	inFlight  map[int]struct{}
	observers map[int]Observer
	nextObsID int
	// notifyMu はスナップショットの取得と配信を直列化し、購読者が古い状態を最後に受け取らないようにします。
	notifyMu sync.Mutex

	randFloat         func() float64
	newID             func(page int) string
	onCredentialError func(error)
}

// New は設定と生成サービスから Orchestrator 一式を組み立てます。
func New(cfg config.Config, text TextModel, image ImageModel, opts ...Option) (*Orchestrator, error) {
	if text == nil || image == nil {
		return nil, fmt.Errorf("TextModel と ImageModel は必須です")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	textPrompt, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	imagePrompt := prompts.NewImagePromptBuilder()
	selector := NewModelSelector(cfg.ImageModel, cfg.FallbackModel, cfg.FailureThreshold)

	o := NewOrchestrator(
		NewBeatGenerator(text, textPrompt, selector, cfg.TextModel, cfg.Layout),
		NewPersonaGenerator(image, imagePrompt, selector),
		NewPanelGenerator(image, imagePrompt, selector),
		selector,
		cfg.Layout,
		NewLinearRetryPolicy(cfg.MaxRetries, cfg.RetryDelay, gemini.IsCredentialError),
		opts...,
	)
	return o, nil
}

// NewOrchestrator は組み立て済みの部品から Orchestrator を初期化します。
func NewOrchestrator(
	beats *BeatGenerator,
	personas *PersonaGenerator,
	panels *PanelGenerator,
	selector *ModelSelector,
	layout domain.StoryLayout,
	retry RetryPolicy,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		beats:     beats,
		personas:  personas,
		panels:    panels,
		selector:  selector,
		retry:     retry,
		layout:    layout,
		settings:  domain.DefaultStorySettings(),
		inFlight:  make(map[int]struct{}),
		observers: make(map[int]Observer),
		randFloat: rand.Float64,
		newID: func(page int) string {
			return fmt.Sprintf("page-%d-%s", page, uuid.NewString()[:8])
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Layout はページ構成を返します。
func (o *Orchestrator) Layout() domain.StoryLayout { return o.layout }

// SetSettings は生成条件を設定します。
func (o *Orchestrator) SetSettings(s domain.StorySettings) {
	o.mu.Lock()
	o.settings = s
	o.mu.Unlock()
}

// Settings は現在の生成条件を返します。
func (o *Orchestrator) Settings() domain.StorySettings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings
}

// SetOriginStory は原作モード用の Markdown を読み込みます。
func (o *Orchestrator) SetOriginStory(markdown string) {
	segments := ParseOriginStory(markdown, o.layout.MaxStoryPages)
	o.mu.Lock()
	o.origin = segments
	o.mu.Unlock()
}

// SetHero は主人公のペルソナを設定します。
func (o *Orchestrator) SetHero(p *domain.Persona) {
	o.mu.Lock()
	o.hero = p
	o.mu.Unlock()
}

// Hero は主人公のペルソナを返します。
func (o *Orchestrator) Hero() *domain.Persona {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.hero
}

// SetCoStar は共演者のペルソナを設定します。
func (o *Orchestrator) SetCoStar(p *domain.Persona) {
	o.mu.Lock()
	o.coStar = p
	o.mu.Unlock()
}

// CoStar は共演者のペルソナを返します。
func (o *Orchestrator) CoStar() *domain.Persona {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.coStar
}

// Snapshot はページ列のディープコピーを PageIndex の昇順で返します。
func (o *Orchestrator) Snapshot() domain.ComicFaces {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.faces.SortedByPage()
}

// Subscribe はページ列の変更通知を登録し、解除関数を返します。
func (o *Orchestrator) Subscribe(obs Observer) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextObsID
	o.nextObsID++
	o.observers[id] = obs
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// InFlight は指定ページが生成中かどうかを返します。
func (o *Orchestrator) InFlight(page int) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.inFlight[page]
	return ok
}

// Reset はセッションの全状態を破棄します。
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.faces = nil
	o.hero = nil
	o.coStar = nil
	o.inFlight = make(map[int]struct{})
	o.mu.Unlock()
	o.selector.Reset()
	o.notify()
}

// RequestBeat は現在のページ列を文脈としてビートを生成します。
// 再試行を使い切った場合は代替ビートを返し、認証エラーだけはそのまま返します。
func (o *Orchestrator) RequestBeat(ctx context.Context, pageNumber int, isDecisionPage bool) (domain.Beat, error) {
	o.mu.RLock()
	req := BeatRequest{
		History:        o.faces.StoryHistory(pageNumber),
		PageNumber:     pageNumber,
		IsDecisionPage: isDecisionPage,
		Settings:       o.settings,
		HasCoStar:      o.coStar != nil,
		OriginSegments: o.origin,
	}
	o.mu.RUnlock()

	if req.HasCoStar {
		lastFocus := domain.FocusCharacter("")
		if n := len(req.History); n > 0 {
			lastFocus = req.History[n-1].Beat.FocusCharacter
		}
		req.FocusCoStar = lastFocus != domain.FocusFriend && o.randFloat() > coStarFocusThreshold
	}

	beat, err := RetryOr(ctx, o.pagePolicy(pageNumber, "beat"), FallbackBeat(req), func(ctx context.Context) (domain.Beat, error) {
		return o.beats.RequestBeat(ctx, req)
	})
	if err != nil {
		if o.retry.isPermanent(err) || ctx.Err() != nil {
			return domain.Beat{}, err
		}
		slog.WarnContext(ctx, "ビート生成の再試行を使い切ったため代替ビートを使用します", "page", pageNumber, "error", err)
	}
	return beat, nil
}

// RequestPersona は現在のジャンルの画風でペルソナを生成します。
func (o *Orchestrator) RequestPersona(ctx context.Context, description string) (*domain.Persona, error) {
	return o.personas.RequestPersona(ctx, description, o.Settings().Genre)
}

// RequestPanelImage は現在の主人公・共演者を参照してページ画像を1回生成します。
func (o *Orchestrator) RequestPanelImage(ctx context.Context, beat domain.Beat, faceType domain.FaceType) (string, error) {
	o.mu.RLock()
	refs := PanelReferences{Hero: o.hero, CoStar: o.coStar}
	settings := o.settings
	o.mu.RUnlock()
	return o.panels.RequestPanelImage(ctx, beat, faceType, refs, settings)
}

// Launch は表紙と序盤のページを生成します。主人公のペルソナが必要です。
func (o *Orchestrator) Launch(ctx context.Context) error {
	if o.Hero() == nil {
		return ErrNoHero
	}
	o.mu.Lock()
	o.faces = nil
	o.inFlight = make(map[int]struct{})
	o.mu.Unlock()
	o.notify()

	if err := o.RunBatch(ctx, 0, 1); err != nil {
		return err
	}
	if err := o.RunBatch(ctx, 1, o.layout.InitialPages); err != nil {
		return err
	}
	return o.RunBatch(ctx, 1+o.layout.InitialPages, o.layout.Lookahead)
}

// ResolveChoice はユーザーの選択を記録し、続きのページを生成します。
func (o *Orchestrator) ResolveChoice(ctx context.Context, pageIndex int, choice string) error {
	found := false
	o.mutate(func(faces domain.ComicFaces) {
		for i := range faces {
			if faces[i].PageIndex == pageIndex {
				faces[i].ResolvedChoice = choice
				found = true
			}
		}
	})
	if !found {
		return fmt.Errorf("page %d: %w", pageIndex, ErrUnknownPage)
	}
	slog.InfoContext(ctx, "選択が確定しました", "page", pageIndex, "choice", choice)
	return o.Continue(ctx)
}

// Continue は最後のページの次から BatchSize ページを生成します。
func (o *Orchestrator) Continue(ctx context.Context) error {
	next := o.Snapshot().MaxPageIndex() + 1
	if next > o.layout.BackCoverPage {
		return nil
	}
	return o.RunBatch(ctx, next, o.layout.BatchSize)
}

// Finish は物語を打ち切り、最後のページの直後に裏表紙を生成します。
func (o *Orchestrator) Finish(ctx context.Context) error {
	next := o.Snapshot().MaxPageIndex() + 1
	if next > o.layout.BackCoverPage {
		return nil
	}
	if !o.acquire(next) {
		return nil
	}
	defer o.release(next)

	id := o.addFace(next, domain.FaceBackCover)
	return o.generatePage(ctx, id, next, domain.FaceBackCover)
}

// RunBatch は start から count ページを、ページ番号の昇順に1ページずつ生成します。
// 生成中のページと生成済みのページは飛ばします。
func (o *Orchestrator) RunBatch(ctx context.Context, start, count int) error {
	type job struct {
		id       string
		page     int
		faceType domain.FaceType
	}

	var jobs []job
	for page := start; page < start+count && page <= o.layout.BackCoverPage; page++ {
		if o.resolved(page) || !o.acquire(page) {
			slog.DebugContext(ctx, "生成中または生成済みのページを飛ばします", "page", page)
			continue
		}
		faceType := o.layout.FaceTypeFor(page)
		jobs = append(jobs, job{id: o.addFace(page, faceType), page: page, faceType: faceType})
	}
	if len(jobs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "バッチ生成を開始します", "start", start, "pages", len(jobs))
	for i, j := range jobs {
		err := func() error {
			defer o.release(j.page)
			return o.generatePage(ctx, j.id, j.page, j.faceType)
		}()
		if err != nil {
			for _, rest := range jobs[i+1:] {
				o.settle(rest.id, "")
				o.release(rest.page)
			}
			return err
		}
	}
	return nil
}

// generatePage は1ページ分のビートと画像を解決します。
// ページ単位の失敗はそのページだけを劣化させ、認証エラーとキャンセルだけを返します。
func (o *Orchestrator) generatePage(ctx context.Context, id string, page int, faceType domain.FaceType) error {
	logger := slog.With("page", page, "type", faceType)
	logger.InfoContext(ctx, "Starting page generation")
	startTime := time.Now()

	o.update(id, func(f *domain.ComicFace) { f.Status = domain.StatusBeatPending })

	settings := o.Settings()
	isDecision := faceType == domain.FaceStory && !settings.Genre.IsOriginStory() && o.layout.IsDecisionPage(page)

	var beat domain.Beat
	switch faceType {
	case domain.FaceCover:
		beat = domain.CoverBeat()
	case domain.FaceBackCover:
		beat = domain.BackCoverBeat()
	default:
		b, err := o.RequestBeat(ctx, page, isDecision)
		if err != nil {
			o.settle(id, "")
			return o.surface(err)
		}
		beat = b
		o.ensureCoStar(ctx, &beat)
	}

	o.update(id, func(f *domain.ComicFace) {
		b := beat.Clone()
		f.Beat = &b
		f.IsDecisionPage = isDecision
		f.Status = domain.StatusImagePending
	})

	url, err := RetryOr(ctx, o.pagePolicy(page, "image"), "", func(ctx context.Context) (string, error) {
		return o.RequestPanelImage(ctx, beat, faceType)
	})
	if err != nil && (o.retry.isPermanent(err) || ctx.Err() != nil) {
		o.settle(id, "")
		return o.surface(err)
	}
	if url == "" {
		logger.ErrorContext(ctx, "画像生成の再試行を使い切りました", "attempts", o.retry.MaxRetries+1, "error", err)
	}

	o.settle(id, url)
	logger.InfoContext(ctx, "Page generation completed", "ready", url != "", "duration", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// ensureCoStar は、共演者が主役のビートなのに共演者がいない場合にペルソナを生成します。
// 生成に失敗したらフォーカスを other に落とします。
func (o *Orchestrator) ensureCoStar(ctx context.Context, beat *domain.Beat) {
	if beat.FocusCharacter != domain.FocusFriend || o.CoStar() != nil {
		return
	}

	desc := fmt.Sprintf("Sidekick for %s story.", o.Settings().Genre)
	if o.Settings().Genre == domain.GenreCustom {
		desc = "A fitting sidekick for this story"
	}
	p, err := o.RequestPersona(ctx, desc)
	if err != nil {
		if gemini.IsCredentialError(err) && o.onCredentialError != nil {
			o.onCredentialError(err)
		}
		slog.WarnContext(ctx, "共演者の生成に失敗したためフォーカスを変更します", "error", err)
		beat.FocusCharacter = domain.FocusOther
		return
	}
	o.SetCoStar(p)
}

func (o *Orchestrator) surface(err error) error {
	if gemini.IsCredentialError(err) && o.onCredentialError != nil {
		o.onCredentialError(err)
	}
	return err
}

func (o *Orchestrator) pagePolicy(page int, step string) RetryPolicy {
	p := o.retry
	p.OnRetry = func(retry int, err error) {
		slog.Warn("ページ生成を再試行します", "page", page, "step", step, "retry", retry, "error", err)
	}
	return p
}

// acquire は生成中セットにページを追加します。既に生成中なら false を返します。
func (o *Orchestrator) acquire(page int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.inFlight[page]; ok {
		return false
	}
	o.inFlight[page] = struct{}{}
	return true
}

func (o *Orchestrator) release(page int) {
	o.mu.Lock()
	delete(o.inFlight, page)
	o.mu.Unlock()
}

func (o *Orchestrator) resolved(page int) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f, ok := o.faces.FindByPage(page)
	return ok && f.Resolved()
}

// addFace は生成待ちのページ枠を追加します。同じページの失敗済み枠は置き換えます。
func (o *Orchestrator) addFace(page int, faceType domain.FaceType) string {
	id := o.newID(page)
	if faceType == domain.FaceCover {
		id = "cover"
	}
	face := domain.NewQueuedFace(id, page, faceType)

	o.mu.Lock()
	replaced := false
	for i := range o.faces {
		if o.faces[i].PageIndex == page {
			o.faces[i] = face
			replaced = true
		}
	}
	if !replaced {
		o.faces = append(o.faces, face)
	}
	o.mu.Unlock()
	o.notify()
	return id
}

func (o *Orchestrator) settle(id, url string) {
	o.update(id, func(f *domain.ComicFace) {
		f.ImageURL = url
		f.IsLoading = false
		if url != "" {
			f.Status = domain.StatusReady
		} else {
			f.Status = domain.StatusFailed
		}
	})
}

// update は ID が一致するページを最新の状態に対して書き換えます。
func (o *Orchestrator) update(id string, fn func(*domain.ComicFace)) {
	o.mutate(func(faces domain.ComicFaces) {
		for i := range faces {
			if faces[i].ID == id {
				fn(&faces[i])
			}
		}
	})
}

// mutate はロック下でページ列を書き換え、購読者に通知します。
func (o *Orchestrator) mutate(fn func(domain.ComicFaces)) {
	o.mu.Lock()
	fn(o.faces)
	o.mu.Unlock()
	o.notify()
}

// notify は現在のページ列を購読者に配信します。Observer の中からページ列を変更してはいけません。
func (o *Orchestrator) notify() {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.RLock()
	snapshot := o.faces.SortedByPage()
	observers := make([]Observer, 0, len(o.observers))
	for _, obs := range o.observers {
		observers = append(observers, obs)
	}
	o.mu.RUnlock()

	for _, obs := range observers {
		obs(snapshot.Clone())
	}
}

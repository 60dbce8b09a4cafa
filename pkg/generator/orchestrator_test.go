package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
)

const testBeatJSON = `{"caption":"c","dialogue":"d","scene":"HERO in the city","focus_char":"hero","choices":["A","B"]}`

type fakeText struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeText) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(prompt)
	}
	return testBeatJSON, nil
}

func (f *fakeText) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeImage struct {
	mu    sync.Mutex
	calls int
	reqs  []gemini.ImageRequest
	data  []byte
	err   error
	block chan struct{}
	hit   chan struct{}
}

func (f *fakeImage) GenerateImage(ctx context.Context, req gemini.ImageRequest) (*gemini.ImageResponse, error) {
	f.mu.Lock()
	f.calls++
	f.reqs = append(f.reqs, req)
	err := f.err
	f.mu.Unlock()

	if f.hit != nil {
		f.hit <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	data := f.data
	if data == nil {
		data = []byte{0xff, 0xd8, 0x01}
	}
	return &gemini.ImageResponse{Data: data, MimeType: "image/jpeg"}, nil
}

func (f *fakeImage) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeImage) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.RetryDelay = 0
	cfg.MaxRetries = 1
	return cfg
}

func newTestOrchestrator(t *testing.T, text TextModel, image ImageModel, opts ...Option) *Orchestrator {
	t.Helper()
	seq := 0
	opts = append([]Option{WithIDGenerator(func(page int) string {
		seq++
		return fmt.Sprintf("page-%d-%d", page, seq)
	})}, opts...)
	o, err := New(testConfig(), text, image, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestOrchestrator_Launch(t *testing.T) {
	ctx := context.Background()
	text := &fakeText{}
	image := &fakeImage{}
	o := newTestOrchestrator(t, text, image)

	t.Run("主人公なしでは開始できない", func(t *testing.T) {
		if err := o.Launch(ctx); !errors.Is(err, ErrNoHero) {
			t.Fatalf("ErrNoHero を期待しましたが %v", err)
		}
	})

	o.SetHero(domain.NewPersona([]byte{1, 2, 3}, "image/png", "hero"))
	if err := o.Launch(ctx); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	faces := o.Snapshot()
	if len(faces) != 5 {
		t.Fatalf("表紙と4ページが生成されるべきです: %d", len(faces))
	}
	for i, f := range faces {
		if f.PageIndex != i {
			t.Fatalf("スナップショットはページ順であるべきです: %+v", faces)
		}
		if f.Status != domain.StatusReady || !f.Resolved() {
			t.Errorf("page %d が完成していません: %+v", i, f)
		}
	}
	if faces[0].Type != domain.FaceCover || faces[0].ID != "cover" {
		t.Errorf("0ページ目は表紙であるべきです: %+v", faces[0])
	}
	if !faces[3].IsDecisionPage || len(faces[3].Choices()) != 2 {
		t.Errorf("3ページ目は選択肢ページであるべきです: %+v", faces[3].Beat)
	}
	if faces[2].IsDecisionPage || len(faces[2].Choices()) != 0 {
		t.Errorf("2ページ目に選択肢があってはいけません: %+v", faces[2].Beat)
	}

	t.Run("参照画像として主人公がそのまま渡される", func(t *testing.T) {
		image.mu.Lock()
		req := image.reqs[len(image.reqs)-1]
		image.mu.Unlock()
		if len(req.Parts) < 2 || !bytes.Equal(req.Parts[1].Data, []byte{1, 2, 3}) {
			t.Errorf("主人公の参照画像が含まれていません: %+v", req.Parts)
		}
	})

	t.Run("選択後は続きのページを生成する", func(t *testing.T) {
		if err := o.ResolveChoice(ctx, 3, "A"); err != nil {
			t.Fatalf("ResolveChoice() error = %v", err)
		}
		faces := o.Snapshot()
		if faces.MaxPageIndex() != 10 {
			t.Errorf("5..10 ページが生成されるべきです: max=%d", faces.MaxPageIndex())
		}
		f, _ := faces.FindByPage(3)
		if f.ResolvedChoice != "A" {
			t.Errorf("選択が記録されていません: %+v", f)
		}
		if !strings.Contains(text.lastPrompt(), "FINAL PAGE") {
			t.Error("最終ページのプロンプトには結末の指示が含まれるべきです")
		}
	})

	t.Run("存在しないページの選択はエラー", func(t *testing.T) {
		if err := o.ResolveChoice(ctx, 42, "A"); !errors.Is(err, ErrUnknownPage) {
			t.Errorf("ErrUnknownPage を期待しましたが %v", err)
		}
	})

	t.Run("Finish で裏表紙を付ける", func(t *testing.T) {
		if err := o.Finish(ctx); err != nil {
			t.Fatal(err)
		}
		f, ok := o.Snapshot().FindByPage(11)
		if !ok || f.Type != domain.FaceBackCover || f.Status != domain.StatusReady {
			t.Errorf("裏表紙が生成されていません: %+v", f)
		}
		if err := o.Continue(ctx); err != nil {
			t.Errorf("裏表紙の後の Continue は何もしないべきです: %v", err)
		}
	})

	t.Run("Reset で全て破棄する", func(t *testing.T) {
		o.Reset()
		if len(o.Snapshot()) != 0 || o.Hero() != nil {
			t.Error("Reset 後に状態が残っています")
		}
	})
}

func TestOrchestrator_RunBatchSkipsInFlight(t *testing.T) {
	ctx := context.Background()
	image := &fakeImage{block: make(chan struct{}), hit: make(chan struct{}, 4)}
	o := newTestOrchestrator(t, &fakeText{}, image)
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))

	done := make(chan error, 1)
	go func() { done <- o.RunBatch(ctx, 1, 1) }()

	select {
	case <-image.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("画像生成が開始されませんでした")
	}
	if !o.InFlight(1) {
		t.Fatal("生成中のページは InFlight であるべきです")
	}

	if err := o.RunBatch(ctx, 1, 1); err != nil {
		t.Fatalf("二重起動の RunBatch() error = %v", err)
	}
	close(image.block)
	if err := <-done; err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if got := image.callCount(); got != 1 {
		t.Errorf("同じページを二重に生成してはいけません: calls=%d", got)
	}
	if o.InFlight(1) {
		t.Error("完了後は InFlight から外れるべきです")
	}
	if n := len(o.Snapshot()); n != 1 {
		t.Errorf("ページ枠は1つであるべきです: %d", n)
	}
}

func TestOrchestrator_FailedPageIsRegenerated(t *testing.T) {
	ctx := context.Background()
	image := &fakeImage{err: errBoom}
	o := newTestOrchestrator(t, &fakeText{}, image)
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))

	if err := o.RunBatch(ctx, 1, 1); err != nil {
		t.Fatalf("ページ単位の失敗でバッチを止めてはいけません: %v", err)
	}
	f, _ := o.Snapshot().FindByPage(1)
	if f.Status != domain.StatusFailed || f.ImageURL != "" || f.IsLoading {
		t.Fatalf("失敗ページの状態が不正です: %+v", f)
	}
	if f.Beat == nil || f.Beat.Caption != "c" {
		t.Errorf("ビートは保持されるべきです: %+v", f.Beat)
	}

	image.setErr(nil)
	if err := o.RunBatch(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	faces := o.Snapshot()
	if len(faces) != 1 || faces[0].Status != domain.StatusReady {
		t.Errorf("失敗ページはその場で再生成されるべきです: %+v", faces)
	}

	calls := image.callCount()
	if err := o.RunBatch(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	if image.callCount() != calls {
		t.Error("完成済みのページを再生成してはいけません")
	}
}

func TestOrchestrator_BeatFallback(t *testing.T) {
	ctx := context.Background()
	text := &fakeText{reply: func(string) (string, error) { return "not json", nil }}
	o := newTestOrchestrator(t, text, &fakeImage{})

	beat, err := o.RequestBeat(ctx, 1, false)
	if err != nil {
		t.Fatalf("RequestBeat() error = %v", err)
	}
	if beat.Caption != "It began..." {
		t.Errorf("代替ビートを期待しました: %+v", beat)
	}
}

func TestOrchestrator_CredentialErrorAborts(t *testing.T) {
	ctx := context.Background()
	image := &fakeImage{err: gemini.ErrCredentials}
	var handled []error
	o := newTestOrchestrator(t, &fakeText{}, image, WithCredentialHandler(func(err error) {
		handled = append(handled, err)
	}))
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))

	err := o.RunBatch(ctx, 1, 3)
	if !gemini.IsCredentialError(err) {
		t.Fatalf("認証エラーを期待しましたが %v", err)
	}
	if len(handled) != 1 {
		t.Errorf("ハンドラは1回呼ばれるべきです: %d", len(handled))
	}
	if image.callCount() != 1 {
		t.Errorf("認証エラーは再試行しないべきです: calls=%d", image.callCount())
	}
	for _, f := range o.Snapshot() {
		if f.Status != domain.StatusFailed || f.IsLoading {
			t.Errorf("中断されたページは failed で確定するべきです: %+v", f)
		}
	}
	for p := 1; p <= 3; p++ {
		if o.InFlight(p) {
			t.Errorf("page %d が InFlight のまま残っています", p)
		}
	}
}

func TestOrchestrator_CoStarFocus(t *testing.T) {
	ctx := context.Background()
	text := &fakeText{}
	o := newTestOrchestrator(t, text, &fakeImage{}, WithRandom(func() float64 { return 0.9 }))
	o.SetCoStar(domain.NewPersona([]byte{9}, "", "friend"))

	if _, err := o.RequestBeat(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.lastPrompt(), "FOCUS ON THE CO-STAR") {
		t.Error("乱数が閾値を超えたら共演者を主役にするべきです")
	}

	o2 := newTestOrchestrator(t, text, &fakeImage{}, WithRandom(func() float64 { return 0.1 }))
	o2.SetCoStar(domain.NewPersona([]byte{9}, "", "friend"))
	if _, err := o2.RequestBeat(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text.lastPrompt(), "FOCUS ON THE CO-STAR") {
		t.Error("乱数が閾値以下なら共演者を主役にしないべきです")
	}
}

func TestOrchestrator_FriendFocusCreatesCoStar(t *testing.T) {
	ctx := context.Background()
	text := &fakeText{reply: func(string) (string, error) {
		return `{"caption":"c","scene":"CO-STAR arrives","focus_char":"friend","choices":[]}`, nil
	}}
	image := &fakeImage{data: []byte{7, 7, 7}}
	o := newTestOrchestrator(t, text, image)
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))

	if err := o.RunBatch(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	coStar := o.CoStar()
	if coStar == nil {
		t.Fatal("共演者が生成されるべきです")
	}
	if !bytes.Equal(coStar.ImageData(), []byte{7, 7, 7}) {
		t.Errorf("ペルソナの画像はモデルの出力そのままであるべきです: %v", coStar.ImageData())
	}
	if !strings.HasPrefix(coStar.Description(), "Sidekick for") {
		t.Errorf("Description = %q", coStar.Description())
	}
}

func TestOrchestrator_RequestPersonaKeepsBytes(t *testing.T) {
	want := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	image := &fakeImage{data: want}
	o := newTestOrchestrator(t, &fakeText{}, image)

	p, err := o.RequestPersona(context.Background(), "A cyber ninja")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.ImageData(), want) {
		t.Errorf("ImageData() = %v, want %v", p.ImageData(), want)
	}
	if p.Description() != "A cyber ninja" {
		t.Errorf("Description() = %q", p.Description())
	}
}

func TestOrchestrator_Subscribe(t *testing.T) {
	o := newTestOrchestrator(t, &fakeText{}, &fakeImage{})
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))

	var mu sync.Mutex
	var statuses []domain.PageStatus
	unsubscribe := o.Subscribe(func(s domain.ComicFaces) {
		if f, ok := s.FindByPage(1); ok {
			mu.Lock()
			statuses = append(statuses, f.Status)
			mu.Unlock()
			s[0].ImageURL = "mutated"
		}
	})

	if err := o.RunBatch(context.Background(), 1, 1); err != nil {
		t.Fatal(err)
	}
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	want := []domain.PageStatus{domain.StatusQueued, domain.StatusBeatPending, domain.StatusImagePending, domain.StatusReady}
	if len(statuses) != len(want) {
		t.Fatalf("通知された状態遷移 = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %q, want %q", i, statuses[i], want[i])
		}
	}
	if f, _ := o.Snapshot().FindByPage(1); f.ImageURL == "mutated" {
		t.Error("購読者への通知はコピーであるべきです")
	}
}

func TestOrchestrator_SubscribeDeliversInOrder(t *testing.T) {
	o, err := New(testConfig(), &fakeText{}, &fakeImage{})
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var sizes []int
	o.Subscribe(func(s domain.ComicFaces) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		sizes = append(sizes, len(s))
		mu.Unlock()
	})

	const pages = 20
	var wg sync.WaitGroup
	for page := 1; page <= pages; page++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.addFace(page, domain.FaceStory)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != pages {
		t.Fatalf("通知回数 = %d, want %d", len(sizes), pages)
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] < sizes[i-1] {
			t.Fatalf("古いスナップショットが後から届きました: %v", sizes)
		}
	}
	if sizes[len(sizes)-1] != pages {
		t.Errorf("最後の通知のページ数 = %d, want %d", sizes[len(sizes)-1], pages)
	}
}

func TestOrchestrator_OriginStoryHasNoDecisions(t *testing.T) {
	text := &fakeText{}
	o := newTestOrchestrator(t, text, &fakeImage{})
	o.SetHero(domain.NewPersona([]byte{1}, "", "hero"))
	s := domain.DefaultStorySettings()
	s.Genre = domain.GenreOriginStory
	o.SetSettings(s)
	o.SetOriginStory("## Page 3\nThe validators gathered.")

	if err := o.RunBatch(context.Background(), 3, 1); err != nil {
		t.Fatal(err)
	}
	f, _ := o.Snapshot().FindByPage(3)
	if f.IsDecisionPage || len(f.Choices()) != 0 {
		t.Errorf("原作モードでは選択肢を出さないべきです: %+v", f)
	}
	if !strings.Contains(text.lastPrompt(), "The validators gathered.") {
		t.Error("原作のページ本文がプロンプトに含まれるべきです")
	}
}

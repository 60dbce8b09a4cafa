package workflow

import (
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/collection"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/walrus"
)

// BuildPersonaRunner は、ペルソナの準備を担当する Runner を作成します。
func (m *Manager) BuildPersonaRunner() (PersonaRunner, error) {
	return runner.NewComicPersonaRunner(m.orchestratorFactory()), nil
}

// BuildStoryRunner は、ストーリーセッションを担当する Runner を作成します。
func (m *Manager) BuildStoryRunner() (StoryRunner, error) {
	if _, err := m.newOrchestrator(); err != nil {
		return nil, err
	}
	return runner.NewComicStoryRunner(m.orchestratorFactory()), nil
}

// BuildMintHeroRunner は、ヒーローのミントを担当する Runner を作成します。
func (m *Manager) BuildMintHeroRunner() (MintHeroRunner, error) {
	minter, err := m.mintClient()
	if err != nil {
		return nil, err
	}
	pkg, err := m.comicPackage()
	if err != nil {
		return nil, err
	}
	return runner.NewHeroMintRunner(m.blobs, minter, pkg, m.storeOptions()), nil
}

// BuildMintComicRunner は、コミックのミントを担当する Runner を作成します。
func (m *Manager) BuildMintComicRunner() (MintComicRunner, error) {
	minter, err := m.mintClient()
	if err != nil {
		return nil, err
	}
	pkg, err := m.comicPackage()
	if err != nil {
		return nil, err
	}
	return runner.NewComicMintRunner(m.blobs, minter, pkg, m.storeOptions()), nil
}

// BuildCollectionRunner は、コレクション取得を担当する Runner を作成します。
func (m *Manager) BuildCollectionRunner() (CollectionRunner, error) {
	pkg, err := m.comicPackage()
	if err != nil {
		return nil, fmt.Errorf("コレクションの取得には SUI_PACKAGE_ID が必要です: %w", err)
	}
	query := collection.NewQuery(m.chain, pkg.ComicIssueType())
	return runner.NewComicCollectionRunner(query, m.blobs), nil
}

// BuildExportRunner は、成果物の書き出しを担当する Runner を作成します。
func (m *Manager) BuildExportRunner() (ExportRunner, error) {
	pub := publisher.NewComicPublisher(m.writer)
	return runner.NewComicExportRunner(m.cfg.Layout, pub), nil
}

func (m *Manager) orchestratorFactory() runner.OrchestratorFactory {
	return func() (*generator.Orchestrator, error) {
		return m.newOrchestrator()
	}
}

// storeOptions は Walrus の保存条件です。
// 作成された Blob オブジェクトは WALRUS_SEND_TO に送り、未設定ならミントの署名者に送ります。
func (m *Manager) storeOptions() walrus.StoreOptions {
	opts := walrus.StoreOptions{
		Epochs:    m.cfg.Walrus.Epochs,
		Deletable: m.cfg.Walrus.Deletable,
		Owner:     m.cfg.Walrus.SendTo,
	}
	if opts.Owner == "" && m.signer != nil {
		opts.Owner = m.signer.Address().String()
	}
	return opts
}

package config

import (
	"testing"
	"time"

	comiccfg "github.com/shouni/go-comic-kit/pkg/config"
)

func TestLoadConfig(t *testing.T) {
	t.Run("環境変数を反映する", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEMINI_TEXT_MODEL", "text-x")
		t.Setenv("SUI_PACKAGE_ID", "0x2a")
		t.Setenv("WALRUS_EPOCHS", "7")
		t.Setenv("WALRUS_DELETABLE", "true")
		t.Setenv("SUI_RPC_TIMEOUT", "5s")
		t.Setenv("TEST_MODE", "1")
		t.Setenv("WALRUS_SEND_TO", "0x77")
		t.Setenv("ALLOW_PRIVATE_NETWORK", "true")

		cfg := LoadConfig()
		if cfg.Comic.GeminiAPIKey != "key" || cfg.Comic.TextModel != "text-x" {
			t.Errorf("Gemini 設定が反映されていません: %+v", cfg.Comic)
		}
		if cfg.Comic.Sui.PackageID != "0x2a" || cfg.Comic.RPCTimeout != 5*time.Second {
			t.Errorf("Sui 設定が反映されていません: %+v", cfg.Comic.Sui)
		}
		if cfg.Comic.Walrus.Epochs != 7 || !cfg.Comic.Walrus.Deletable {
			t.Errorf("Walrus 設定が反映されていません: %+v", cfg.Comic.Walrus)
		}
		if !cfg.TestMode {
			t.Error("TEST_MODE が反映されていません")
		}
		if cfg.Comic.Walrus.SendTo != "0x77" || !cfg.Comic.AllowPrivateNetwork {
			t.Errorf("送り先とネットワーク設定が反映されていません: %+v", cfg.Comic)
		}
	})

	t.Run("不正な値はデフォルト", func(t *testing.T) {
		t.Setenv("WALRUS_EPOCHS", "many")
		t.Setenv("GEMINI_RETRY_DELAY", "soon")
		t.Setenv("WALRUS_DELETABLE", "maybe")

		cfg := LoadConfig()
		if cfg.Comic.Walrus.Epochs != comiccfg.DefaultStorageEpochs {
			t.Errorf("Epochs = %d", cfg.Comic.Walrus.Epochs)
		}
		if cfg.Comic.RetryDelay != comiccfg.DefaultRetryDelay {
			t.Errorf("RetryDelay = %v", cfg.Comic.RetryDelay)
		}
		if cfg.Comic.Walrus.Deletable {
			t.Error("不正な真偽値は false のはずです")
		}
	})
}

func TestConfig_Apply(t *testing.T) {
	cfg := LoadConfig()
	cfg.Apply(GenerateOptions{ImageModel: "img-y", OutputDir: "out"})
	if cfg.Comic.ImageModel != "img-y" || cfg.Options.OutputDir != "out" {
		t.Errorf("Apply() が反映されていません: %+v", cfg.Options)
	}
	if cfg.Comic.TextModel == "" {
		t.Error("空のモデル名で上書きしてはいけません")
	}
}

package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("デフォルト設定が検証に失敗しました: %v", err)
	}
	if cfg.MaxRetries != 2 || cfg.FailureThreshold != 3 {
		t.Errorf("リトライ既定値が違います: retries=%d threshold=%d", cfg.MaxRetries, cfg.FailureThreshold)
	}
	if cfg.FallbackModel == cfg.ImageModel {
		t.Error("フォールバックモデルは主モデルと異なる必要があります")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"モデル未指定", func(c *Config) { c.ImageModel = "" }},
		{"閾値ゼロ", func(c *Config) { c.FailureThreshold = 0 }},
		{"負のリトライ", func(c *Config) { c.MaxRetries = -1 }},
		{"裏表紙がストーリー内", func(c *Config) { c.Layout.BackCoverPage = c.Layout.MaxStoryPages }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("エラーになるはずです")
			}
		})
	}
}

func TestSuiConfig_ValidateChain(t *testing.T) {
	s := DefaultConfig().Sui
	if err := s.ValidateChain(); err == nil {
		t.Error("PackageID 未設定はエラーになるはずです")
	}
	s.PackageID = "0x1"
	if err := s.ValidateChain(); err != nil {
		t.Errorf("想定外のエラー: %v", err)
	}
}

package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
	if _, err := parseLogLevel("loud"); err == nil {
		t.Error("未知のレベルはエラーのはずです")
	}
}

func TestPreRunAppE_RequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	logLevel = "info"

	gen := &cobra.Command{Annotations: map[string]string{"requires": "gemini"}}
	if err := preRunAppE(gen, nil); err == nil {
		t.Error("API キーなしの生成コマンドはエラーのはずです")
	}

	plain := &cobra.Command{}
	if err := preRunAppE(plain, nil); err != nil {
		t.Errorf("API キー不要のコマンドでエラーになりました: %v", err)
	}
}

func TestRootCommands(t *testing.T) {
	want := []string{"generate", "persona", "mint", "collection", "export"}
	for _, name := range want {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("サブコマンド %s が登録されていません", name)
		}
	}
}

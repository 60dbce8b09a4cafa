package generator

import (
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func TestParseOriginStory(t *testing.T) {
	md := `# Sui: The Origin

## Page 1
Genesis block.

## Page 3
Validators awaken.
Second line.

## Page 12
Out of range.
`
	got := ParseOriginStory(md, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[0] != "Genesis block." {
		t.Errorf("page 1 = %q", got[0])
	}
	if got[1] != domain.OriginMissingSegment {
		t.Errorf("欠けたページは既定文で埋めるべきです: %q", got[1])
	}
	if got[2] != "Validators awaken.\nSecond line." {
		t.Errorf("page 3 = %q", got[2])
	}
	if got[3] != domain.OriginMissingSegment {
		t.Errorf("page 4 = %q", got[3])
	}
}

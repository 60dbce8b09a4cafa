package generator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

var pageHeadingRegex = regexp.MustCompile(`(?m)^## Page (\d+)\s*$`)

// ParseOriginStory は "## Page N" 見出しで区切られた Markdown を maxPages 件のページ本文に分割します。
// 欠けているページは domain.OriginMissingSegment で埋めます。
func ParseOriginStory(markdown string, maxPages int) []string {
	segments := make([]string, maxPages)
	for i := range segments {
		segments[i] = domain.OriginMissingSegment
	}

	locs := pageHeadingRegex.FindAllStringSubmatchIndex(markdown, -1)
	for i, loc := range locs {
		n, err := strconv.Atoi(markdown[loc[2]:loc[3]])
		if err != nil || n < 1 || n > maxPages {
			continue
		}
		end := len(markdown)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if body := strings.TrimSpace(markdown[loc[1]:end]); body != "" {
			segments[n-1] = body
		}
	}
	return segments
}

package platform

import (
	"strings"

	"github.com/ytget/vdl/internal/model"
)

// Token suffixes recognized in a progress line
const (
	PercentSuffix  = "%"
	RateSuffix     = "B/s"
	SizeSuffix     = "B"
	TimeSeparator  = ":"
	FragmentSuffix = ")"
)

// ParseProgress parses the whitespace separated tokens of a progress line
// (with the [download] marker already removed) into a record. Each token is
// classified on its own by shape; unknown tokens such as "of", "at" or "ETA"
// are ignored. The returned record has no label.
func ParseProgress(text string) model.ProgressRecord {
	var record model.ProgressRecord

	for _, token := range strings.Fields(text) {
		if strings.HasSuffix(token, PercentSuffix) {
			record.Percent = token
		}

		// B/s also ends with B, so rate has to be checked first.
		if strings.HasSuffix(token, RateSuffix) {
			record.Rate = token
		} else if strings.HasSuffix(token, SizeSuffix) {
			record.Size = token
		}

		if strings.Contains(token, TimeSeparator) {
			record.ETA = token
		}

		if strings.HasSuffix(token, FragmentSuffix) {
			record.Fragment = strings.TrimSuffix(token, FragmentSuffix)
		}
	}

	return record
}

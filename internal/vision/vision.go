package vision

import (
	"context"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// AnalysisPrompt is the shared prompt used by all vision adapters.
const AnalysisPrompt = `List every food item you can see in this refrigerator/freezer/pantry photo.
For each item provide: name, how many units you can count, and any relevant notes
(e.g. opened, nearly empty). Respond in plain text, one item per line,
format: name | count | notes`

type VisionAnalyzer interface {
	Analyze(ctx context.Context, r io.Reader, mimeType string) (*AnalysisResult, error)
}

type AnalysisResult struct {
	Items       []DetectedItem
	RawResponse string
}

type DetectedItem struct {
	Name     string
	Quantity string
	Notes    string
}

// Count returns the leading whole number of the detected quantity
// ("3 cans" -> 3). Anything without a positive leading number counts as one.
func (d DetectedItem) Count() int {
	q := strings.TrimSpace(d.Quantity)
	end := strings.IndexFunc(q, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(q)
	}
	n, err := strconv.Atoi(q[:end])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

package vision

import (
	"strings"
)

var preamblePrefixes = []string{"Here", "I see", "Based on"}

// ParseLine parses a single "name | count | notes" line. Lines without a
// pipe are preamble or commentary and yield nil.
func ParseLine(line string) *DetectedItem {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}
	for _, p := range preamblePrefixes {
		if strings.HasPrefix(line, p) {
			return nil
		}
	}
	line = strings.TrimLeft(line, "-*• ")

	parts := strings.Split(line, "|")
	item := &DetectedItem{Name: strings.TrimSpace(parts[0])}
	if item.Name == "" {
		return nil
	}
	if len(parts) >= 2 {
		item.Quantity = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		item.Notes = strings.TrimSpace(parts[2])
	}
	return item
}

// ParseResponse parses a vision model response with one item per line.
func ParseResponse(raw string) []DetectedItem {
	items := make([]DetectedItem, 0)
	for _, line := range strings.Split(raw, "\n") {
		if item := ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}
	return items
}

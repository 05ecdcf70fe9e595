package topic

import "strings"

// Classifier assigns exactly one Topic to a piece of text.
type Classifier struct {
	table *Table
}

func NewClassifier(table *Table) *Classifier {
	return &Classifier{table: table}
}

// Classify lowercases title and secondary text joined by a space and returns the
// first topic, in table order, with any keyword contained in it. Matching is plain
// substring containment: "go" matches "google". ASCII-only lowercasing keeps the
// result independent of locale.
func (c *Classifier) Classify(title, secondary string) Topic {
	text := lowerASCII(title + " " + secondary)

	for _, r := range c.table.rules {
		for _, k := range r.Keywords {
			if strings.Contains(text, k) {
				return r.Topic
			}
		}
	}
	return c.table.fallback
}

func lowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}

	b := []byte(s)
	for i := range b {
		if 'A' <= b[i] && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// Package topic classifies text into a fixed, ordered set of topic labels.
package topic

import (
	"fmt"
	"strings"
)

// Topic is a display label such as "🗄️ Databases".
type Topic string

// Rule binds a topic to the lowercase substrings that select it.
type Rule struct {
	Topic    Topic
	Keywords []string
}

// Table is an immutable, ordered keyword table plus the fallback topic.
// Rule order is classification precedence.
type Table struct {
	rules    []Rule
	fallback Topic
}

// NewTable copies rules so later mutation by the caller cannot change precedence.
func NewTable(rules []Rule, fallback Topic) (*Table, error) {
	if strings.TrimSpace(string(fallback)) == "" {
		return nil, fmt.Errorf("default topic is required")
	}

	seen := make(map[Topic]struct{}, len(rules))
	copied := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(string(r.Topic)) == "" {
			return nil, fmt.Errorf("rule %d: empty topic", i)
		}
		if _, dup := seen[r.Topic]; dup {
			return nil, fmt.Errorf("rule %d: duplicate topic %q", i, r.Topic)
		}
		seen[r.Topic] = struct{}{}

		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = lowerASCII(k)
			if strings.TrimSpace(k) == "" {
				continue
			}
			keywords = append(keywords, k)
		}
		copied = append(copied, Rule{Topic: r.Topic, Keywords: keywords})
	}

	return &Table{rules: copied, fallback: fallback}, nil
}

// Default returns the topic assigned when nothing matches.
func (t *Table) Default() Topic {
	return t.fallback
}

// Topics lists the declared topics in precedence order, without the default.
func (t *Table) Topics() []Topic {
	out := make([]Topic, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Topic
	}
	return out
}

// Rules returns a copy of the rules.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{Topic: r.Topic, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

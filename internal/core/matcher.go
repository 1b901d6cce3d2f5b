package core

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Matcher resolves an inbound MQTT topic to the ordered list of routes
// whose topic pattern matches it, honoring the standard wildcard
// semantics: "+" matches exactly one level, "#" matches all remaining
// levels and is only legal as the final segment.
type Matcher struct {
	routes []*Route
	cache  *lru.Cache[string, []*Route]
}

// NewMatcher builds a Matcher over routes in declaration order. cacheSize
// of 0 disables the resolved-topic cache.
func NewMatcher(routes []*Route, cacheSize int) (*Matcher, error) {
	m := &Matcher{routes: routes}
	if cacheSize > 0 {
		c, err := lru.New[string, []*Route](cacheSize)
		if err != nil {
			return nil, err
		}
		m.cache = c
	}
	return m, nil
}

// Match returns every route whose pattern matches topic, in the order
// the routes were declared.
func (m *Matcher) Match(topic string) []*Route {
	if m.cache != nil {
		if cached, ok := m.cache.Get(topic); ok {
			return cached
		}
	}

	topicParts := strings.Split(topic, "/")
	var matched []*Route
	for _, r := range m.routes {
		if topicMatches(strings.Split(r.Topic, "/"), topicParts) {
			matched = append(matched, r)
		}
	}

	if m.cache != nil {
		m.cache.Add(topic, matched)
	}
	return matched
}

// SubscriptionPatterns returns the distinct topic patterns across all
// routes, suitable for a broker Subscribe call.
func (m *Matcher) SubscriptionPatterns() []string {
	seen := make(map[string]struct{}, len(m.routes))
	var patterns []string
	for _, r := range m.routes {
		if _, ok := seen[r.Topic]; ok {
			continue
		}
		seen[r.Topic] = struct{}{}
		patterns = append(patterns, r.Topic)
	}
	return patterns
}

func topicMatches(pattern, topic []string) bool {
	for i, p := range pattern {
		if p == "#" {
			return i == len(pattern)-1
		}
		if i >= len(topic) {
			return false
		}
		if p == "+" {
			continue
		}
		if p != topic[i] {
			return false
		}
	}
	return len(pattern) == len(topic)
}

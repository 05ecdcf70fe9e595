package news

import (
	"sort"

	"github.com/deusflow/engtrends/internal/topic"
)

// TopicCount is one entry of the topic ranking.
type TopicCount struct {
	Topic topic.Topic `json:"topic"`
	Count int         `json:"count"`
}

// RankTopics counts items per topic, highest count first. Equal counts keep
// the order in which the topics were first seen.
func RankTopics(items []Item) []TopicCount {
	ranking := make([]TopicCount, 0)
	index := make(map[topic.Topic]int)

	for _, it := range items {
		if i, ok := index[it.Topic]; ok {
			ranking[i].Count++
			continue
		}
		index[it.Topic] = len(ranking)
		ranking = append(ranking, TopicCount{Topic: it.Topic, Count: 1})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	return ranking
}

// GroupByTopic buckets items by topic keeping their original order.
func GroupByTopic(items []Item) map[topic.Topic][]Item {
	groups := make(map[topic.Topic][]Item)
	for _, it := range items {
		groups[it.Topic] = append(groups[it.Topic], it)
	}
	return groups
}

// TopByScore returns up to n items by descending score; ties keep input order.
func TopByScore(items []Item, n int) []Item {
	sorted := append(make([]Item, 0, len(items)), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

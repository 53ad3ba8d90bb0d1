package routing

import (
	"sort"
	"strings"
)

// EventKey carries the event attributes route predicates and filters are
// evaluated against.
type EventKey struct {
	CampaignID string
	Source     string
	Status     string
	Country    string
}

// Match picks the destination for an event: enabled routes are evaluated in
// (priority ascending, creation order) sequence and the first route whose
// predicate and filters all match wins. A winning route without an override
// falls back to the profile default, as does a match-less evaluation.
// Pure function, no side effects.
func Match(routes []Route, event EventKey, defaultDest Destination) (Destination, *Route) {
	ordered := make([]Route, len(routes))
	copy(ordered, routes)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	for i := range ordered {
		route := &ordered[i]
		if !route.Enabled {
			continue
		}
		if !predicateMatches(route, event) {
			continue
		}
		if len(route.Statuses) > 0 && !containsFold(route.Statuses, event.Status) {
			continue
		}
		if len(route.Countries) > 0 && !containsFold(route.Countries, event.Country) {
			continue
		}

		dest := defaultDest
		if route.ChatID != nil {
			dest = Destination{ChatID: *route.ChatID, TopicID: route.TopicID}
		}
		return dest, route
	}

	return defaultDest, nil
}

func predicateMatches(route *Route, event EventKey) bool {
	switch route.MatchBy {
	case MatchByAny:
		return true
	case MatchByCampaignID:
		return route.MatchValue != "" && route.MatchValue == event.CampaignID
	case MatchBySource:
		return route.MatchValue != "" && route.MatchValue == event.Source
	}
	return false
}

func containsFold(set []string, value string) bool {
	for _, item := range set {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

package compose

import "strings"

// EventKind is the semantic meaning extracted from one line of compose
// output. This is a heuristic classifier, not a parser: matching is
// case-insensitive substring search in a fixed priority order, and unexpected
// vendor wording degrades to KindInfo rather than failing.
type EventKind int

const (
	KindImagePullStarted EventKind = iota
	KindImagePulled
	KindContainerCreateStarted
	KindContainerCreated
	KindServiceStartStarted
	KindServiceStarted
	KindServiceRunning
	KindFailure
	KindInfo
)

// Event is one classified line. Service is set for the *Started kinds when a
// known service name appears anywhere in the line, and is empty otherwise.
type Event struct {
	Kind    EventKind
	Service string
	Line    string
}

var serviceNames []string

func init() {
	serviceNames = []string{"analytics-service", "qdrant", "northwind-db", "analytics-ui"}
}

// Classify maps one raw output line to zero or one semantic event. Blank
// lines produce no event. Order matters: "pulling" must win over "pulled"
// being a substring miss, and error hints are checked only after the
// lifecycle vocabulary.
func Classify(line string) (Event, bool) {
	if strings.TrimSpace(line) == "" {
		return Event{}, false
	}
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, "pulling"):
		return Event{Kind: KindImagePullStarted, Service: serviceName(lower), Line: line}, true
	case strings.Contains(lower, "pulled"):
		return Event{Kind: KindImagePulled, Line: line}, true
	case strings.Contains(lower, "creating"):
		return Event{Kind: KindContainerCreateStarted, Service: serviceName(lower), Line: line}, true
	case strings.Contains(lower, "created"):
		return Event{Kind: KindContainerCreated, Line: line}, true
	case strings.Contains(lower, "starting"):
		return Event{Kind: KindServiceStartStarted, Service: serviceName(lower), Line: line}, true
	case strings.Contains(lower, "started"):
		return Event{Kind: KindServiceStarted, Line: line}, true
	case strings.Contains(lower, "running"):
		return Event{Kind: KindServiceRunning, Line: line}, true
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return Event{Kind: KindFailure, Line: line}, true
	default:
		return Event{Kind: KindInfo, Line: line}, true
	}
}

// serviceName returns the first known service identifier contained in the
// lowercased line, or "".
func serviceName(lower string) string {
	for _, s := range serviceNames {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}

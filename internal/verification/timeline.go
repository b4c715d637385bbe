package verification

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	burstWindow     = 5 * time.Minute
	burstMinItems   = 10
	regularMinGaps  = 5
	regularShare    = 0.8
	regularTol      = 0.1
	nightShareLimit = 0.5
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var durationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(years?|yrs?|months?)`)

// parseTimestamp accepts ISO-8601 with or without zone. Zone-less values are UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isNightHour reports hours before 06:00 or after 22:59.
func isNightHour(t time.Time) bool {
	h := t.Hour()
	return h < 6 || h > 22
}

// timelineAnalysis is shared by the temporal assessor and the fraud detector
type timelineAnalysis struct {
	parsed           []time.Time
	unparseable      int
	span             time.Duration
	regularIntervals bool
	burst            bool
	nightShare       float64
}

func analyzeTimeline(s *Submission) timelineAnalysis {
	var raw []string
	for _, m := range s.Media {
		if m.Timestamp != "" {
			raw = append(raw, m.Timestamp)
		}
	}
	for _, wp := range s.Waypoints {
		if wp.Timestamp != "" {
			raw = append(raw, wp.Timestamp)
		}
	}

	var a timelineAnalysis
	for _, ts := range raw {
		t, ok := parseTimestamp(ts)
		if !ok {
			a.unparseable++
			continue
		}
		a.parsed = append(a.parsed, t)
	}
	sort.Slice(a.parsed, func(i, j int) bool { return a.parsed[i].Before(a.parsed[j]) })

	if len(a.parsed) < 2 {
		return a
	}

	a.span = a.parsed[len(a.parsed)-1].Sub(a.parsed[0])
	a.regularIntervals = regularIntervals(a.parsed)
	a.burst = burst(a.parsed)

	night := 0
	for _, t := range a.parsed {
		if isNightHour(t) {
			night++
		}
	}
	a.nightShare = float64(night) / float64(len(a.parsed))

	return a
}

func (a timelineAnalysis) nightHeavy() bool {
	return a.nightShare > nightShareLimit
}

// regularIntervals flags sorted timestamps whose gaps are nearly identical
func regularIntervals(sorted []time.Time) bool {
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Sub(sorted[i-1]).Seconds())
	}
	if len(gaps) <= regularMinGaps {
		return false
	}

	mean := 0.0
	for _, g := range gaps {
		mean += g
	}
	mean /= float64(len(gaps))

	within := 0
	for _, g := range gaps {
		if math.Abs(g-mean) <= regularTol*mean {
			within++
		}
	}
	return float64(within)/float64(len(gaps)) > regularShare
}

// burst reports more than burstMinItems timestamps inside any burstWindow
func burst(sorted []time.Time) bool {
	start := 0
	for end := range sorted {
		for sorted[end].Sub(sorted[start]) > burstWindow {
			start++
		}
		if end-start+1 > burstMinItems {
			return true
		}
	}
	return false
}

// timelineYears extracts a project duration such as "5 years" or "18 months".
func timelineYears(text string) (float64, bool) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "month") {
		return n / 12, true
	}
	return n, true
}

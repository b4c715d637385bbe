package verification

import (
	"strings"
)

var genericMonitoringChecklist = []string{
	"Establish baseline measurements",
	"Monitor ecosystem health indicators",
	"Track carbon sequestration rates",
	"Document biodiversity changes",
}

// ProfileTable resolves ecosystem tags and their aliases to profiles
type ProfileTable struct {
	byTag map[string]*EcosystemProfile
}

// NewProfileTable indexes profiles by canonical name and alias
func NewProfileTable(profiles []EcosystemProfile) *ProfileTable {
	t := &ProfileTable{byTag: make(map[string]*EcosystemProfile, len(profiles)*2)}
	for i := range profiles {
		p := &profiles[i]
		t.byTag[normalizeTag(p.Name)] = p
		for _, alias := range p.Aliases {
			t.byTag[normalizeTag(alias)] = p
		}
	}
	return t
}

// Lookup returns the profile for a tag such as "Mangroves" or "salt marsh".
func (t *ProfileTable) Lookup(tag string) (*EcosystemProfile, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.byTag[normalizeTag(tag)]
	return p, ok
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(tag)
}

// monitoringChecklist falls back to the generic list for profiles without one
func monitoringChecklist(p *EcosystemProfile) []string {
	if len(p.MonitoringChecklist) > 0 {
		return append([]string(nil), p.MonitoringChecklist...)
	}
	return append([]string(nil), genericMonitoringChecklist...)
}

// humanize turns an indicator keyword into searchable text.
func humanize(keyword string) string {
	return strings.ToLower(strings.ReplaceAll(keyword, "_", " "))
}

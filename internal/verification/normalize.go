package verification

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

// RawSubmission is a project submission as it arrives from a client: a
// free-form JSON object whose fields may take several shapes.
type RawSubmission map[string]any

// KnownMeasurementCategories are scored in this order.
var KnownMeasurementCategories = []string{"water_quality", "soil_analysis", "biodiversity"}

var (
	numberPattern    = regexp.MustCompile(`[-+]?(?:\d+(?:[,_]\d{2,3})*(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`)
	digitGroups      = strings.NewReplacer(",", "", "_", "")
	coordPairPattern = regexp.MustCompile(`(?i)([-+]?\d+(?:\.\d+)?)\s*°?\s*([NS])?\s*[,;]?\s*([-+]?\d+(?:\.\d+)?)\s*°?\s*([EW])?`)
)

// NormalizeSubmission converts a raw submission into the canonical form.
// Unparseable values become absent; it never fails.
func NormalizeSubmission(raw RawSubmission) *Submission {
	s := &Submission{
		ProjectID:         raw.text("project_id", "id"),
		ProjectName:       raw.text("project_name", "name"),
		EcosystemType:     raw.text("ecosystem_type"),
		Description:       raw.text("project_description", "description"),
		Methodology:       raw.text("methodology"),
		RestorationMethod: raw.text("restoration_method"),
		Objectives:        raw.text("objectives", "project_objectives"),
		CommunityDetails:  raw.text("community_details"),
		CommunityName:     raw.text("community_name"),
		ContactEmail:      raw.text("contact_email", "email"),
		Phone:             raw.text("phone", "contact_phone"),
		BaselineData:      raw.text("baseline_data"),
		MonitoringPlan:    raw.text("monitoring_plan"),
		Timeline:          raw.text("timeline", "project_timeline"),
	}

	s.EstimatedCredits = raw.number("estimated_carbon_credits", "estimated_credits")
	s.CommunitySize = raw.number("community_members", "community_size")
	s.BudgetEstimate = raw.number("estimated_budget", "budget_estimate", "budget")

	s.Location = normalizeLocation(raw)
	s.GPSAccuracy, s.GPSAccuracyInvalid = normalizeAccuracy(raw)
	s.AreaHectares, s.AreaInvalid = normalizeArea(raw)

	s.Media = normalizeMedia(raw["media_files"], false)
	s.Media = append(s.Media, normalizeMedia(raw["ipfs_hashes"], true)...)
	s.Waypoints = normalizeWaypoints(raw)
	s.Measurements = normalizeMeasurements(raw["field_measurements"])

	if ts := raw.text("submitted_at", "created_at"); ts != "" {
		if t, ok := parseTimestamp(ts); ok {
			s.SubmittedAt = &t
		}
	}

	return s
}

// text returns the first non-empty value among keys as trimmed text
func (r RawSubmission) text(keys ...string) string {
	for _, key := range keys {
		if v := textOf(r[key]); v != "" {
			return v
		}
	}
	return ""
}

// number returns the first numeric value among keys
func (r RawSubmission) number(keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := numberOf(r[key]); ok {
			return &v
		}
	}
	return nil
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, float32, int, int64, json.Number, bool:
		return fmt.Sprint(t)
	case map[string]any, []any:
		if isEmptyCollection(t) {
			return ""
		}
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func isEmptyCollection(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// numberOf coerces a JSON number or numeric-looking text such as "7.2 ppt"
// or "1,200 tCO2e" into a float, taking the first numeric token. Digit-group
// separators inside the token are dropped.
func numberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		token := numberPattern.FindString(t)
		if token == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(digitGroups.Replace(token), 64)
		return f, err == nil
	}
	return 0, false
}

// =====================================================
// Location
// =====================================================

func normalizeLocation(raw RawSubmission) *Location {
	if loc := locationOf(raw["location"]); loc != nil {
		return loc
	}

	if lat, ok := numberOf(raw["latitude"]); ok {
		if lng, ok := numberOf(raw["longitude"]); ok {
			if loc := nonZero(lat, lng); loc != nil {
				return loc
			}
		}
	}

	if loc := locationOf(raw["gps_coordinates"]); loc != nil {
		return loc
	}

	return boundaryCentroid(raw["boundary"])
}

// locationOf accepts {lat,lng} objects, WKT points and delimited strings
func locationOf(v any) *Location {
	switch t := v.(type) {
	case map[string]any:
		lat, okLat := firstNumber(t, "lat", "latitude")
		lng, okLng := firstNumber(t, "lng", "lon", "longitude")
		if !okLat || !okLng {
			return nil
		}
		return nonZero(lat, lng)
	case string:
		return parseLocationString(t)
	}
	return nil
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := numberOf(m[key]); ok {
			return v, true
		}
	}
	return 0, false
}

// parseLocationString handles "POINT(88.98 22.35)", "19.07,72.88",
// "22.35°N, 88.98°E" and "22.35 N; 88.98 E". Southern and western
// hemispheres are negated.
func parseLocationString(s string) *Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(strings.ToUpper(s), "POINT") {
		lat, lng, err := geospatial.ParseWKTPoint(strings.ToUpper(s))
		if err != nil {
			return nil
		}
		return nonZero(lat, lng)
	}

	m := coordPairPattern.FindStringSubmatchIndex(s)
	// the two numbers must be separated, otherwise "1200.5" reads as a pair
	if m == nil || m[3] >= m[6] {
		return nil
	}

	lat, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(s[m[6]:m[7]], 64)
	if err != nil {
		return nil
	}
	if m[4] >= 0 && strings.EqualFold(s[m[4]:m[5]], "S") {
		lat = -abs(lat)
	}
	if m[8] >= 0 && strings.EqualFold(s[m[8]:m[9]], "W") {
		lng = -abs(lng)
	}

	return nonZero(lat, lng)
}

func boundaryCentroid(v any) *Location {
	geometry := boundaryGeometry(v)
	if geometry == nil {
		return nil
	}
	c := geospatial.CalculateCentroid(geometry)
	return nonZero(c.Lat(), c.Lon())
}

func boundaryGeometry(v any) orb.Geometry {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		data = b
	default:
		return nil
	}

	g, err := geospatial.ValidateGeoJSON(data)
	if err != nil {
		return nil
	}
	return g
}

// (0,0) is treated as absent, not as the Gulf of Guinea.
func nonZero(lat, lng float64) *Location {
	if lat == 0 && lng == 0 {
		return nil
	}
	return &Location{Lat: lat, Lng: lng}
}

func normalizeAccuracy(raw RawSubmission) (*float64, bool) {
	candidates := []any{raw["gps_accuracy"]}
	if m, ok := raw["location"].(map[string]any); ok {
		candidates = append(candidates, m["accuracy"])
	}
	if m, ok := raw["gps_data"].(map[string]any); ok {
		candidates = append(candidates, m["accuracy"])
	}

	present := false
	for _, c := range candidates {
		if c == nil {
			continue
		}
		present = true
		if v, ok := numberOf(c); ok && v >= 0 {
			return &v, false
		}
	}
	return nil, present
}

func normalizeArea(raw RawSubmission) (*float64, bool) {
	present := false
	for _, key := range []string{"area_hectares", "area"} {
		v, exists := raw[key]
		if !exists || v == nil {
			continue
		}
		present = true
		if f, ok := numberOf(v); ok {
			return &f, false
		}
	}

	if geometry := boundaryGeometry(raw["boundary"]); geometry != nil {
		if ha := geospatial.ConvertToHectares(geospatial.CalculateArea(geometry)); ha > 0 {
			return &ha, false
		}
	}

	return nil, present
}

// =====================================================
// Evidence
// =====================================================

// normalizeMedia accepts either {"photos": [...], "videos": [...]} or a flat list
func normalizeMedia(v any, pinned bool) []MediaItem {
	var items []MediaItem

	switch t := v.(type) {
	case map[string]any:
		kinds := make([]string, 0, len(t))
		for kind := range t {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			list, ok := t[kind].([]any)
			if !ok {
				continue
			}
			for _, entry := range list {
				items = append(items, mediaItemOf(entry, kind, pinned))
			}
		}
	case []any:
		defaultKind := "file"
		if pinned {
			defaultKind = "ipfs"
		}
		for _, entry := range t {
			items = append(items, mediaItemOf(entry, defaultKind, pinned))
		}
	}

	return items
}

func mediaItemOf(entry any, kind string, pinned bool) MediaItem {
	item := MediaItem{Kind: kind, Pinned: pinned}

	m, ok := entry.(map[string]any)
	if !ok {
		item.Name = textOf(entry)
		return item
	}

	if k := textOf(m["type"]); k != "" {
		item.Kind = k
	} else if k := textOf(m["kind"]); k != "" {
		item.Kind = k
	}
	item.Name = textOf(m["name"])
	if item.Name == "" {
		item.Name = textOf(m["filename"])
	}
	if item.Name == "" {
		item.Name = textOf(m["hash"])
	}
	if size, ok := numberOf(m["size"]); ok && size > 0 {
		item.Size = size
	}

	item.Location = locationOf(m["location"])
	if item.Location == nil {
		item.Location = locationOf(m["gps_data"])
	}
	item.Geotagged = item.Location != nil || truthy(m["geotagged"]) || truthy(m["gps_data"])
	item.Timestamp = textOf(m["timestamp"])

	return item
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	case map[string]any:
		return len(t) > 0
	}
	return false
}

func normalizeWaypoints(raw RawSubmission) []Waypoint {
	var list []any
	if gps, ok := raw["gps_data"].(map[string]any); ok {
		list, _ = gps["waypoints"].([]any)
	}
	if list == nil {
		list, _ = raw["gps_waypoints"].([]any)
	}

	waypoints := make([]Waypoint, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		wp := Waypoint{
			Location:  locationOf(m),
			Timestamp: textOf(m["timestamp"]),
		}
		if wp.Location == nil {
			wp.Location = locationOf(m["location"])
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints
}

// =====================================================
// Field measurements
// =====================================================

func normalizeMeasurements(v any) []Measurement {
	groups, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	order := make([]string, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, category := range KnownMeasurementCategories {
		if _, ok := groups[category]; ok {
			order = append(order, category)
			seen[category] = true
		}
	}
	var rest []string
	for category := range groups {
		if !seen[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	var measurements []Measurement
	for _, category := range order {
		fields, ok := groups[category].(map[string]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			m := Measurement{Category: category, Field: name, Raw: fields[name]}
			m.Value, m.Numeric = numberOf(fields[name])
			measurements = append(measurements, m)
		}
	}
	return measurements
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

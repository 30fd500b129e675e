package research

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// activitySplitter splits free-text activity lists on line breaks,
	// commas, semicolons and inline " - " bullets.
	activitySplitter = regexp.MustCompile(`[\r\n,;]+|\s+-\s+`)
	bulletPrefix     = regexp.MustCompile(`^(?:[-•*]\s*|\d{1,2}[.)]\s+)`)
	blankLine        = regexp.MustCompile(`\r?\n\s*\r?\n`)
)

// Normalize coerces a loosely typed model reply into a LocationRecord. Each
// field is handled on its own and falls back to the matching field of
// defaults, so Normalize never fails. Unknown keys are dropped. Applying it
// again to its own JSON output yields the same record.
func Normalize(parsed any, defaults LocationRecord) LocationRecord {
	rec := defaults.clone()

	obj := asObject(parsed)
	if obj == nil {
		return rec
	}

	if s, ok := nonEmptyString(obj["name"]); ok {
		rec.Name = s
	}
	if s, ok := nonEmptyString(obj["description"]); ok {
		rec.Description = s
	}
	if s, ok := nonEmptyString(obj["history"]); ok {
		rec.History = s
	}
	if s, ok := nonEmptyString(obj["image"]); ok {
		rec.Image = s
	}
	if s, ok := nonEmptyString(obj["image_suggestion"]); ok {
		rec.ImageSuggestion = s
	}
	if v, ok := obj["activities"]; ok && v != nil {
		if acts, ok := normalizeActivities(v); ok {
			rec.Activities = acts
		}
	}
	if v, ok := obj["info"]; ok && v != nil {
		if info, ok := normalizeInfo(v); ok {
			rec.Info = info
		}
	}
	// Records without a nearby slot (image analysis, history) keep their shape.
	if defaults.NearbyPlaces != nil {
		if v, ok := obj["nearby_places"]; ok && v != nil {
			if places, ok := normalizeNearby(v); ok {
				rec.NearbyPlaces = places
			}
		}
	}
	return rec
}

// asObject accepts an object, or an array whose first element is an object
// (some models wrap the record in a list).
func asObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func normalizeActivities(v any) ([]Activity, bool) {
	switch t := v.(type) {
	case string:
		if items, ok := embeddedList(t); ok {
			return normalizeActivities(items)
		}
		segments := splitActivities(t)
		out := make([]Activity, 0, len(segments))
		for _, s := range segments {
			out = append(out, Activity{Name: s})
		}
		return out, true
	case []any:
		out := make([]Activity, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case map[string]any:
				a := Activity{
					Name: scalarString(it["name"]),
					Time: scalarString(it["time"]),
					Cost: scalarString(it["cost"]),
					Note: scalarString(it["note"]),
				}
				if a != (Activity{}) {
					out = append(out, a)
				}
			default:
				if s := strings.TrimSpace(scalarString(it)); s != "" {
					out = append(out, Activity{Name: s})
				}
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// embeddedList recovers JSON nested inside a string field: an array as is,
// a single object as a one-element list.
func embeddedList(s string) ([]any, bool) {
	if arr, ok := ExtractArray(s); ok {
		return arr, true
	}
	if obj, ok := ExtractObject(s); ok {
		return []any{obj}, true
	}
	return nil, false
}

func splitActivities(s string) []string {
	parts := activitySplitter.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(p), ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeInfo accepts an object or a string holding an embedded object.
// A string without a recoverable object yields an empty map rather than a
// guessed structure.
func normalizeInfo(v any) (map[string]string, bool) {
	switch t := v.(type) {
	case map[string]any:
		return stringMap(t), true
	case string:
		if m, ok := ExtractObject(t); ok {
			return stringMap(m), true
		}
		return map[string]string{}, true
	default:
		return nil, false
	}
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = scalarString(v)
	}
	return out
}

// normalizeNearby accepts an array, a string holding an embedded array or
// object, or free text with one place per paragraph.
func normalizeNearby(v any) ([]NearbyPlace, bool) {
	switch t := v.(type) {
	case []any:
		return nearbyFromArray(t), true
	case string:
		if items, ok := embeddedList(t); ok {
			return nearbyFromArray(items), true
		}
		entries := blankLine.Split(t, -1)
		out := make([]NearbyPlace, 0, len(entries))
		for _, e := range entries {
			if e = strings.TrimSpace(e); e != "" {
				out = append(out, NearbyPlace{Name: e, SuggestedActivities: []string{}})
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func nearbyFromArray(arr []any) []NearbyPlace {
	out := make([]NearbyPlace, 0, len(arr))
	for _, item := range arr {
		switch it := item.(type) {
		case map[string]any:
			p := NearbyPlace{
				Name:                strings.TrimSpace(scalarString(it["name"])),
				Category:            scalarString(it["category"]),
				ApproxDistanceKm:    distanceKm(it["approx_distance_km"]),
				ShortDescription:    scalarString(it["short_description"]),
				SuggestedActivities: stringList(it["suggested_activities"]),
			}
			if p.Name != "" {
				out = append(out, p)
			}
		default:
			if s := strings.TrimSpace(scalarString(it)); s != "" {
				out = append(out, NearbyPlace{Name: s, SuggestedActivities: []string{}})
			}
		}
	}
	return out
}

// distanceKm keeps numbers and numeric strings; qualitative text such as
// "khoảng 2 km" drops to 0.
func distanceKm(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if arr, ok := ExtractArray(t); ok {
			return stringList(arr)
		}
		out = append(out, splitActivities(t)...)
	}
	return out
}

func nonEmptyString(v any) (string, bool) {
	switch v.(type) {
	case string, float64, bool, json.Number:
		s := strings.TrimSpace(scalarString(v))
		return s, s != ""
	default:
		return "", false
	}
}

// scalarString renders JSON scalars as text and nested values as compact JSON.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

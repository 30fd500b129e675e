package research

import "errors"

// Mode selects what a research request produces.
type Mode string

const (
	ModeFullResearch  Mode = "search"
	ModeImageAnalysis Mode = "image"
	ModeHistoryOnly   Mode = "history"
)

// ParseMode maps the HTTP searchType field onto a text Mode.
func ParseMode(searchType string) Mode {
	if searchType == string(ModeHistoryOnly) {
		return ModeHistoryOnly
	}
	return ModeFullResearch
}

var (
	ErrEmptySearchTerm       = errors.New("Tên địa điểm không được để trống")
	ErrMissingImage          = errors.New("Thiếu ảnh đầu vào")
	ErrInvalidImage          = errors.New("Ảnh đầu vào không hợp lệ")
	ErrUnknownMode           = errors.New("unknown research mode")
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Placeholder marks a value the pipeline could not determine.
const Placeholder = "Sẽ được cập nhật"

// Canonical info keys.
const (
	InfoAddress = "địa_chỉ"
	InfoHours   = "giờ_mở_cửa"
	InfoPrice   = "giá_vé"
	InfoNote    = "lưu_ý"
)

// DefaultImageURL is attached to full-research records that suggest an image
// but carry none.
const DefaultImageURL = "https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?w=800"

// ImageLandmarkName names records produced from a photo with no search term.
const ImageLandmarkName = "Địa danh từ ảnh"

// Activity is one thing to do at the location.
type Activity struct {
	Name string `json:"name"`
	Time string `json:"time"`
	Cost string `json:"cost"`
	Note string `json:"note"`
}

// NearbyPlace is a point of interest near the researched location.
type NearbyPlace struct {
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	ApproxDistanceKm    float64  `json:"approx_distance_km"`
	ShortDescription    string   `json:"short_description"`
	SuggestedActivities []string `json:"suggested_activities"`
}

// LocationRecord is the canonical, always fully populated research result.
type LocationRecord struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	History         string            `json:"history"`
	Activities      []Activity        `json:"activities"`
	Info            map[string]string `json:"info"`
	Image           string            `json:"image"`
	ImageSuggestion string            `json:"image_suggestion"`
	NearbyPlaces    []NearbyPlace     `json:"nearby_places,omitempty"`
}

// DefaultRecord returns the placeholder record used for fields the model
// leaves out. Only full research carries a nearby_places slot.
func DefaultRecord(term string, mode Mode) LocationRecord {
	name := term
	suggestion := term
	if name == "" {
		name = ImageLandmarkName
		suggestion = "landmark"
	}
	rec := LocationRecord{
		Name:            name,
		Description:     Placeholder,
		History:         Placeholder,
		Activities:      []Activity{},
		Info:            placeholderInfo(Placeholder),
		ImageSuggestion: suggestion,
	}
	if mode == ModeFullResearch {
		rec.NearbyPlaces = []NearbyPlace{}
	}
	return rec
}

func placeholderInfo(note string) map[string]string {
	return map[string]string{
		InfoAddress: Placeholder,
		InfoHours:   Placeholder,
		InfoPrice:   Placeholder,
		InfoNote:    note,
	}
}

// clone deep-copies the slices and map so defaults are never aliased.
func (r LocationRecord) clone() LocationRecord {
	out := r
	if r.Activities != nil {
		out.Activities = append([]Activity{}, r.Activities...)
	}
	if r.Info != nil {
		out.Info = make(map[string]string, len(r.Info))
		for k, v := range r.Info {
			out.Info[k] = v
		}
	}
	if r.NearbyPlaces != nil {
		out.NearbyPlaces = make([]NearbyPlace, len(r.NearbyPlaces))
		for i, p := range r.NearbyPlaces {
			p.SuggestedActivities = append([]string{}, p.SuggestedActivities...)
			out.NearbyPlaces[i] = p
		}
	}
	return out
}

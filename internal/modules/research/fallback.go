package research

import "strings"

// Reason tags why a record was synthesized instead of extracted.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonProviderUnreachable Reason = "provider_unreachable"
	ReasonVisionUnavailable   Reason = "vision_unavailable"
	ReasonUnparseable         Reason = "unparseable"
)

// User-facing texts for degraded records.
const (
	unreachableDescription = "Xin lỗi, không thể kết nối đến dịch vụ AI. Chi tiết lỗi: "
	unreachableHistory     = "Thông tin lịch sử tạm thời không khả dụng."
	unreachableActivity    = "Danh sách hoạt động sẽ được cập nhật khi dịch vụ khôi phục."
	unknownDetail          = "Không xác định"

	unparseableDescription      = "Không tìm thấy thông tin chi tiết về địa điểm này."
	unparseableImageDescription = "Không trích xuất được JSON từ AI."
	unparseableHistory          = "Thông tin lịch sử không có sẵn."
	unparseableActivity         = "Các hoạt động du lịch sẽ được cập nhật sau."

	visionDescription = "Mô tả địa điểm sẽ được cập nhật khi có thông tin từ AI."
	visionHistory     = "Thông tin lịch sử sẽ được cập nhật."
	visionNote        = "Dịch vụ AI vision tạm thời không khả dụng. Vui lòng thử lại sau."
)

// Synthesize builds a complete record when the provider or extraction
// failed. term is the search term captured at request entry (empty for
// photo analysis). detail is the error text for ReasonProviderUnreachable and
// the raw model output for ReasonUnparseable.
func Synthesize(term string, reason Reason, detail string) LocationRecord {
	term = strings.TrimSpace(term)
	detail = strings.TrimSpace(detail)

	name, suggestion := term, term
	if term == "" {
		name, suggestion = ImageLandmarkName, "landmark"
	}

	rec := LocationRecord{
		Name:            name,
		Info:            placeholderInfo(Placeholder),
		ImageSuggestion: suggestion,
	}

	switch reason {
	case ReasonVisionUnavailable:
		rec.Description = visionDescription
		rec.History = visionHistory
		rec.Activities = []Activity{
			{Name: "Chụp ảnh lưu niệm", Time: "15-30 phút", Cost: "Miễn phí", Note: "Ghi lại khoảnh khắc đẹp"},
			{Name: "Khám phá khu vực", Time: "1-2 giờ", Cost: "Tùy thuộc", Note: "Tìm hiểu thêm về địa điểm"},
		}
		rec.Info = placeholderInfo(visionNote)
		rec.ImageSuggestion = "landmark"

	case ReasonUnparseable:
		rec.Description = detail
		if rec.Description == "" {
			rec.Description = unparseableDescription
			if term == "" {
				rec.Description = unparseableImageDescription
			}
		}
		rec.History = unparseableHistory
		rec.Activities = []Activity{{Name: unparseableActivity}}

	default:
		if detail == "" {
			detail = unknownDetail
		}
		rec.Description = unreachableDescription + detail
		rec.History = unreachableHistory
		rec.Activities = []Activity{{Name: unreachableActivity}}
	}
	return rec
}

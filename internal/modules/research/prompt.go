package research

import (
	"fmt"
	"strings"
)

// Generation parameters per request kind.
const (
	TextTemperature   = 0.7
	TextTopP          = 0.9
	TextMaxTokens     = 2000
	VisionTemperature = 0.4
	VisionTopP        = 0.9
	VisionMaxTokens   = 1500
)

const fullResearchPrompt = `Bạn là một chuyên gia du lịch. Người dùng cung cấp 1 chuỗi tìm kiếm vùng/địa điểm: "%s".
Hãy *dựa hoàn toàn vào chuỗi tìm kiếm đó* (không sử dụng vị trí GPS thực tế) để nghiên cứu và trả về 1 JSON duy nhất (CHỈ JSON, KHÔNG TEXT KHÁC) có cấu trúc sau:

{
  "name": "Tên địa điểm chính (string)",
  "description": "Mô tả ngắn về địa điểm (2-3 câu, tiếng Việt)",
  "history": "Tóm tắt lịch sử ngắn (3-4 câu, tiếng Việt)",
  "activities": [
    {"name":"...","time":"...","cost":"...","note":"..."}
  ],
  "info": {"địa_chỉ":"...","giờ_mở_cửa":"...","giá_vé":"...","lưu_ý":"..."},
  "image_suggestion": "Từ khóa ảnh",
  "nearby_places": [
    {
      "name": "Tên địa điểm/điểm tham quan",
      "category": "ví dụ: cafe, temple, beach, park, museum",
      "approx_distance_km": 0.5,
      "short_description": "Mô tả ngắn",
      "suggested_activities": ["tham quan","chụp ảnh"]
    }
  ]
}

YÊU CẦU:
- Trả CHỈ JSON hợp lệ. KHÔNG kèm chữ giải thích bên ngoài JSON.
- nearby_places: trả 3-6 điểm gần khu vực mà chuỗi tìm kiếm đề cập (ước lượng khoảng cách bằng km từ trung tâm khu vực). Nếu không chắc, ước lượng hợp lý.
- activities: trả 4-6 hoạt động phù hợp tại địa điểm chính.
- Nếu không biết chi tiết, đưa ra ước lượng và gắn nhãn "approx" trong văn bản mô tả.
- Toàn bộ nội dung bằng tiếng Việt.
- Không dùng dữ liệu cá nhân hay GPS của user.`

const historyOnlyPrompt = `Bạn là một nhà sử học Việt Nam. Hãy viết phần lịch sử chi tiết, dễ đọc về địa điểm "%s".

YÊU CẦU:
- Chỉ trả về VĂN BẢN THUẦN (không JSON, không tiêu đề), 6-10 câu, mạch lạc.
- Tập trung vào bối cảnh hình thành, các sự kiện quan trọng, giá trị văn hoá, kiến trúc và vai trò hiện nay.
- Sử dụng tiếng Việt, văn phong trang trọng, thân thiện với du khách.`

const imageAnalysisPrompt = `Bạn là hướng dẫn viên du lịch. Dựa trên bức ảnh (không dùng GPS), hãy nhận diện địa danh hoặc gợi ý tên vùng gần đúng. Trả về CHỈ MỖI JSON theo cấu trúc:
{
  "name": "Tên địa danh hoặc vùng (ước lượng nếu cần)",
  "description": "Mô tả ngắn gọn (2-3 câu, tiếng Việt)",
  "history": "Tóm tắt lịch sử (3-4 câu, tiếng Việt, nếu có thể)",
  "activities": [ {"name":"...","time":"...","cost":"...","note":"..."} ],
  "info": {"địa_chỉ":"...","giờ_mở_cửa":"...","giá_vé":"...","lưu_ý":"..."},
  "image_suggestion": "từ khóa ảnh"
}
Yêu cầu: chỉ JSON hợp lệ, không kèm chữ bên ngoài.`

// geminiImagePrompt is the photo prompt sent to Gemini.
const geminiImagePrompt = `Bạn là hướng dẫn viên du lịch. Dựa vào bức ảnh (không dùng GPS), hãy nhận diện địa danh hoặc gợi ý vùng gần đúng. Trả về CHỈ JSON tiếng Việt với cấu trúc:
{
  "name": "Tên địa danh hoặc vùng (ước lượng nếu cần)",
  "description": "Mô tả ngắn 2-3 câu",
  "history": "Tóm tắt lịch sử 3-4 câu nếu có",
  "activities": [ {"name":"...","time":"...","cost":"...","note":"..."} ],
  "info": {"địa_chỉ":"...","giờ_mở_cửa":"...","giá_vé":"...","lưu_ý":"..."},
  "image_suggestion": "từ khóa ảnh"
}
Yêu cầu: chỉ trả JSON hợp lệ.`

// ImagePrompt returns the photo analysis instructions for a provider, named
// as ai.Generator.Name reports it ("gemini:<model>", "ollama:<model>").
func ImagePrompt(provider string) string {
	if strings.HasPrefix(provider, "gemini") {
		return geminiImagePrompt
	}
	return imageAnalysisPrompt
}

// BuildPrompt renders the instructions for mode. The term is ignored for
// image analysis.
func BuildPrompt(mode Mode, term string) string {
	switch mode {
	case ModeHistoryOnly:
		return fmt.Sprintf(historyOnlyPrompt, term)
	case ModeImageAnalysis:
		return imageAnalysisPrompt
	default:
		return fmt.Sprintf(fullResearchPrompt, term)
	}
}

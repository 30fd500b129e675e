package research

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   any
		wantOK bool
	}{
		{
			name:   "prose wrapped object",
			text:   `prefix text {"a":1} suffix`,
			want:   map[string]any{"a": float64(1)},
			wantOK: true,
		},
		{
			name:   "no braces",
			text:   "no braces here",
			wantOK: false,
		},
		{
			name:   "array first",
			text:   `Kết quả: ["Huế", "Hội An"] xong`,
			want:   []any{"Huế", "Hội An"},
			wantOK: true,
		},
		{
			name:   "nested braces inside object",
			text:   "Đây là JSON:\n{\"info\": {\"giá_vé\": \"50.000đ\"}}\nCảm ơn!",
			want:   map[string]any{"info": map[string]any{"giá_vé": "50.000đ"}},
			wantOK: true,
		},
		{
			name:   "malformed span",
			text:   `{"a": 1,, }`,
			wantOK: false,
		},
		{
			name:   "two independent objects are captured greedily",
			text:   `{"a":1} và {"b":2}`,
			wantOK: false,
		},
		{
			name:   "closer before opener",
			text:   `} nothing {`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractJSON ok = %v, want %v (value %v)", ok, tt.wantOK, got)
			}
			if !tt.wantOK {
				if got != nil {
					t.Errorf("expected nil value on failure, got %v", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractJSON = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractJSON_IdempotentOnValidJSON(t *testing.T) {
	text := `{"name":"Chùa Một Cột","activities":["Tham quan"]}`
	first, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected valid JSON to extract")
	}
	second, ok := ExtractJSON(text)
	if !ok || !reflect.DeepEqual(first, second) {
		t.Fatalf("re-extracting changed the value: %v vs %v", first, second)
	}
}

func TestExtractObject_SkipsLeadingBrackets(t *testing.T) {
	m, ok := ExtractObject(`[ghi chú] {"name":"Đà Lạt"}`)
	if !ok {
		t.Fatal("expected object")
	}
	if m["name"] != "Đà Lạt" {
		t.Errorf("unexpected object %v", m)
	}
}

func TestExtractArray(t *testing.T) {
	arr, ok := ExtractArray(`Gợi ý: [{"name":"Chợ Đà Lạt"}]`)
	if !ok || len(arr) != 1 {
		t.Fatalf("expected one element, got %v %v", arr, ok)
	}
	if _, ok := ExtractArray(`{"name":"x"}`); ok {
		t.Error("object text must not extract as array")
	}
}

func TestExtractRecord(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantName string
	}{
		{name: "fenced", raw: "```json\n{\"name\":\"Huế\"}\n```", wantOK: true, wantName: "Huế"},
		{name: "trailing comma repaired", raw: `Đây: {"name": "Huế", "description": "Cố đô",}`, wantOK: true, wantName: "Huế"},
		{name: "truncated tail repaired", raw: `{"name": "Sa Pa", "description": "Thị trấn trong sương`, wantOK: true, wantName: "Sa Pa"},
		{name: "plain prose", raw: "Xin lỗi, tôi không có thông tin về địa điểm này.", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := extractRecord(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("extractRecord ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			m, isMap := v.(map[string]any)
			if !isMap {
				t.Fatalf("expected object, got %T", v)
			}
			if m["name"] != tt.wantName {
				t.Errorf("name = %v, want %s", m["name"], tt.wantName)
			}
		})
	}
}

package research

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dulich/internal/ai"
)

type stubGenerator struct {
	name   string
	text   string
	err    error
	block  bool
	onCall func()

	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
	media   []*ai.Media
}

func (s *stubGenerator) Name() string {
	if s.name != "" {
		return s.name
	}
	return "stub"
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, media *ai.Media) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.media = append(s.media, media)
	s.mu.Unlock()

	if s.onCall != nil {
		s.onCall()
	}
	if s.block {
		<-ctx.Done()
		return "", &ai.TransportError{Provider: "stub", Err: ctx.Err()}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubGenerator) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

func testImage() *ai.Media {
	return &ai.Media{Data: "iVBORw0KGgo=", MIMEType: "image/png"}
}

func TestPipeline_FullResearchHappyPath(t *testing.T) {
	gen := &stubGenerator{text: "Đây là thông tin:\n```json\n" + `{
		"name": "Huế",
		"description": "Cố đô của Việt Nam.",
		"history": "Kinh đô triều Nguyễn 1802-1945.",
		"activities": "Tham quan Đại Nội, Đi thuyền sông Hương",
		"info": {"địa_chỉ": "Thừa Thiên Huế", "giá_vé": 200000},
		"image_suggestion": "Hue citadel",
		"nearby_places": [{"name": "Chùa Thiên Mụ", "category": "temple", "approx_distance_km": 4}]
	}` + "\n```"}
	p := NewPipeline(gen, time.Second)

	out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "  Huế "})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if out.Fallback || out.Reason != ReasonNone || out.Failure != nil {
		t.Fatalf("unexpected fallback: %+v", out)
	}
	wantTrace := []State{StateFetching, StateExtracting, StateNormalizing, StateDone}
	if !reflect.DeepEqual(out.Trace, wantTrace) {
		t.Errorf("trace = %v, want %v", out.Trace, wantTrace)
	}
	if out.Provider != "stub" {
		t.Errorf("provider = %q", out.Provider)
	}

	rec := out.Record
	assertFullyShaped(t, *rec)
	if rec.Name != "Huế" || rec.Description != "Cố đô của Việt Nam." {
		t.Errorf("unexpected record %+v", rec)
	}
	if got := activityNames(rec.Activities); !reflect.DeepEqual(got, []string{"Tham quan Đại Nội", "Đi thuyền sông Hương"}) {
		t.Errorf("activities = %q", got)
	}
	if rec.Info["giá_vé"] != "200000" {
		t.Errorf("info = %v", rec.Info)
	}
	if rec.Image != DefaultImageURL {
		t.Errorf("image = %q, want default image", rec.Image)
	}
	if len(rec.NearbyPlaces) != 1 || rec.NearbyPlaces[0].ApproxDistanceKm != 4 {
		t.Errorf("nearby = %+v", rec.NearbyPlaces)
	}
	if !strings.Contains(gen.lastPrompt(), "Huế") {
		t.Errorf("prompt does not carry the trimmed term: %q", gen.lastPrompt())
	}
}

func TestPipeline_TransportFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: &ai.TransportError{Provider: "stub", Err: errors.New("connection refused")}}
	p := NewPipeline(gen, time.Second)

	out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "Hội An"})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if !out.Fallback || out.Reason != ReasonProviderUnreachable {
		t.Fatalf("expected unreachable fallback, got %+v", out)
	}
	if out.Failure == nil || out.Failure.Kind != ai.FailureTransport {
		t.Errorf("failure = %+v", out.Failure)
	}
	if !reflect.DeepEqual(out.Trace, []State{StateFetching, StateDone}) {
		t.Errorf("trace = %v", out.Trace)
	}
	rec := out.Record
	assertFullyShaped(t, *rec)
	if rec.Name != "Hội An" {
		t.Errorf("name = %q, want the search term", rec.Name)
	}
	if rec.Info[InfoNote] == "" {
		t.Error("lưu_ý must not be empty")
	}
	if !strings.Contains(rec.Description, "connection refused") {
		t.Errorf("description should carry the error, got %q", rec.Description)
	}
	if rec.Image != DefaultImageURL {
		t.Errorf("image = %q", rec.Image)
	}
}

func TestPipeline_ModelUnavailable(t *testing.T) {
	notFound := &ai.StatusError{Provider: "stub", Code: 404, Body: `{"error":"model not found"}`}

	t.Run("image analysis uses the vision placeholder", func(t *testing.T) {
		p := NewPipeline(&stubGenerator{err: notFound}, time.Second)
		out, err := p.Produce(context.Background(), Request{Mode: ModeImageAnalysis, Image: testImage()})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if out.Reason != ReasonVisionUnavailable {
			t.Fatalf("reason = %q", out.Reason)
		}
		if out.Failure.Kind != ai.FailureModelUnavailable || out.Failure.Status != 404 {
			t.Errorf("failure = %+v", out.Failure)
		}
		rec := out.Record
		assertFullyShaped(t, *rec)
		if rec.Name != ImageLandmarkName || rec.Info[InfoNote] != visionNote {
			t.Errorf("unexpected placeholder %+v", rec)
		}
		if rec.Image != "" {
			t.Errorf("image analysis must not set the default image, got %q", rec.Image)
		}
	})

	t.Run("full research treats it as unreachable", func(t *testing.T) {
		p := NewPipeline(&stubGenerator{err: notFound}, time.Second)
		out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "Sa Pa"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if out.Reason != ReasonProviderUnreachable {
			t.Errorf("reason = %q", out.Reason)
		}
		if out.Record.Name != "Sa Pa" {
			t.Errorf("name = %q", out.Record.Name)
		}
	})
}

func TestPipeline_NoJSONKeepsRawText(t *testing.T) {
	raw := "Xin lỗi, tôi chỉ biết Mũi Né có đồi cát đẹp."
	p := NewPipeline(&stubGenerator{text: raw}, time.Second)

	out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "Mũi Né"})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if !out.Fallback || out.Reason != ReasonUnparseable || out.Failure != nil {
		t.Fatalf("expected unparseable fallback, got %+v", out)
	}
	if !reflect.DeepEqual(out.Trace, []State{StateFetching, StateExtracting, StateDone}) {
		t.Errorf("trace = %v", out.Trace)
	}
	assertFullyShaped(t, *out.Record)
	if out.Record.Description != raw || out.Record.Name != "Mũi Né" {
		t.Errorf("unexpected record %+v", out.Record)
	}
}

func TestPipeline_EmptyOutput(t *testing.T) {
	p := NewPipeline(&stubGenerator{text: "   "}, time.Second)

	out, err := p.Produce(context.Background(), Request{Mode: ModeImageAnalysis, Image: testImage()})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if out.Reason != ReasonUnparseable {
		t.Fatalf("reason = %q", out.Reason)
	}
	if out.Record.Description != unparseableImageDescription || out.Record.Name != ImageLandmarkName {
		t.Errorf("unexpected record %+v", out.Record)
	}
}

func TestPipeline_RepairsMalformedJSON(t *testing.T) {
	p := NewPipeline(&stubGenerator{text: `{"name": "Đà Lạt", "description": "Thành phố ngàn hoa", "activities": ["Dạo hồ Xuân Hương",],}`}, time.Second)

	out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "Đà Lạt"})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if out.Fallback {
		t.Fatalf("expected repaired record, got fallback %+v", out)
	}
	if out.Record.Description != "Thành phố ngàn hoa" {
		t.Errorf("description = %q", out.Record.Description)
	}
	if got := activityNames(out.Record.Activities); !reflect.DeepEqual(got, []string{"Dạo hồ Xuân Hương"}) {
		t.Errorf("activities = %q", got)
	}
}

func TestPipeline_ImageAnalysisPassesMedia(t *testing.T) {
	gen := &stubGenerator{text: `{"name":"Cầu Vàng","description":"Cây cầu trên Bà Nà.","nearby_places":[{"name":"x"}]}`}
	p := NewPipeline(gen, time.Second)
	img := testImage()

	out, err := p.Produce(context.Background(), Request{Mode: ModeImageAnalysis, Image: img})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if out.Record.Name != "Cầu Vàng" || out.Record.NearbyPlaces != nil {
		t.Errorf("unexpected record %+v", out.Record)
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.media) != 1 || gen.media[0] != img {
		t.Errorf("image was not forwarded to the provider")
	}
}

func TestPipeline_ImagePromptPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{provider: "gemini:gemini-1.5-flash", want: "Trả về CHỈ JSON tiếng Việt"},
		{provider: "ollama:llama3.2-vision", want: "Trả về CHỈ MỖI JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			gen := &stubGenerator{name: tt.provider, text: `{"name":"Chùa Một Cột"}`}
			if _, err := NewPipeline(gen, time.Second).Produce(context.Background(), Request{Mode: ModeImageAnalysis, Image: testImage()}); err != nil {
				t.Fatalf("Produce: %v", err)
			}
			if !strings.Contains(gen.lastPrompt(), tt.want) {
				t.Errorf("prompt for %s = %q, want it to contain %q", tt.provider, gen.lastPrompt(), tt.want)
			}
		})
	}
}

func TestPipeline_HistoryOnly(t *testing.T) {
	t.Run("returns trimmed text", func(t *testing.T) {
		p := NewPipeline(&stubGenerator{text: "\n  Văn Miếu được xây dựng năm 1070.  \n"}, time.Second)
		out, err := p.Produce(context.Background(), Request{Mode: ModeHistoryOnly, SearchTerm: "Văn Miếu"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if out.History != "Văn Miếu được xây dựng năm 1070." {
			t.Errorf("history = %q", out.History)
		}
		if out.Record != nil || out.Fallback {
			t.Errorf("unexpected outcome %+v", out)
		}
		if !reflect.DeepEqual(out.Trace, []State{StateFetching, StateDone}) {
			t.Errorf("trace = %v", out.Trace)
		}
	})

	t.Run("failure carries fallback history", func(t *testing.T) {
		p := NewPipeline(&stubGenerator{err: &ai.StatusError{Provider: "stub", Code: 500}}, time.Second)
		out, err := p.Produce(context.Background(), Request{Mode: ModeHistoryOnly, SearchTerm: "Văn Miếu"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if !out.Fallback || out.History != unreachableHistory {
			t.Errorf("unexpected outcome %+v", out)
		}
	})
}

func TestPipeline_ValidationSkipsProvider(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "empty term", req: Request{Mode: ModeFullResearch, SearchTerm: "   "}, want: ErrEmptySearchTerm},
		{name: "empty history term", req: Request{Mode: ModeHistoryOnly}, want: ErrEmptySearchTerm},
		{name: "missing image", req: Request{Mode: ModeImageAnalysis}, want: ErrMissingImage},
		{name: "blank image", req: Request{Mode: ModeImageAnalysis, Image: &ai.Media{Data: " "}}, want: ErrMissingImage},
		{name: "unknown mode", req: Request{Mode: Mode("bogus"), SearchTerm: "x"}, want: ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{text: "{}"}
			_, err := NewPipeline(gen, time.Second).Produce(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if n := gen.calls.Load(); n != 0 {
				t.Errorf("provider called %d times", n)
			}
		})
	}
}

func TestPipeline_Cancellation(t *testing.T) {
	t.Run("before fetch", func(t *testing.T) {
		gen := &stubGenerator{text: `{"name":"x"}`}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, err := NewPipeline(gen, time.Second).Produce(ctx, Request{Mode: ModeFullResearch, SearchTerm: "Hà Giang"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if gen.calls.Load() != 0 {
			t.Error("provider must not be called on a cancelled context")
		}
		if !out.Fallback || out.Failure.Kind != ai.FailureTransport {
			t.Errorf("unexpected outcome %+v", out)
		}
	})

	t.Run("during fetch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		gen := &stubGenerator{block: true, onCall: cancel}

		out, err := NewPipeline(gen, time.Minute).Produce(ctx, Request{Mode: ModeFullResearch, SearchTerm: "Hà Giang"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		for _, s := range out.Trace {
			if s == StateExtracting || s == StateNormalizing {
				t.Fatalf("cancelled request reached %s", s)
			}
		}
		if !errors.Is(out.Failure, context.Canceled) {
			t.Errorf("failure = %v, want context.Canceled", out.Failure)
		}
	})

	t.Run("answer after cancel is discarded", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		gen := &stubGenerator{text: `{"name":"Hà Giang","description":"late"}`, onCall: cancel}

		out, err := NewPipeline(gen, time.Minute).Produce(ctx, Request{Mode: ModeFullResearch, SearchTerm: "Hà Giang"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if !out.Fallback || out.Record.Description == "late" {
			t.Errorf("late answer was used: %+v", out.Record)
		}
		if !reflect.DeepEqual(out.Trace, []State{StateFetching, StateDone}) {
			t.Errorf("trace = %v", out.Trace)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		gen := &stubGenerator{block: true}
		out, err := NewPipeline(gen, 20*time.Millisecond).Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: "Côn Đảo"})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if !errors.Is(out.Failure, context.DeadlineExceeded) {
			t.Errorf("failure = %v, want deadline exceeded", out.Failure)
		}
		if out.Record.Name != "Côn Đảo" {
			t.Errorf("name = %q", out.Record.Name)
		}
	})
}

func TestPipeline_ConcurrentTermsStayIsolated(t *testing.T) {
	p := NewPipeline(echoGenerator{}, time.Second)

	terms := []string{"Hà Nội", "Huế", "Đà Nẵng", "Hội An", "Nha Trang", "Đà Lạt", "Cần Thơ", "Phú Quốc"}
	var wg sync.WaitGroup
	errs := make(chan error, len(terms))
	for _, term := range terms {
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			out, err := p.Produce(context.Background(), Request{Mode: ModeFullResearch, SearchTerm: term})
			if err != nil {
				errs <- err
				return
			}
			if out.Record.Name != term || out.Record.ImageSuggestion != term {
				errs <- fmt.Errorf("term %q produced record %q/%q", term, out.Record.Name, out.Record.ImageSuggestion)
			}
		}(term)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// echoGenerator answers with a record that carries only a description, so
// the name must come from the request's own term.
type echoGenerator struct{}

func (echoGenerator) Name() string { return "echo" }

func (echoGenerator) Generate(context.Context, string, *ai.Media) (string, error) {
	time.Sleep(time.Millisecond)
	return `{"description": "Điểm đến nổi tiếng."}`, nil
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateFetching:    "fetching",
		StateExtracting:  "extracting",
		StateNormalizing: "normalizing",
		StateDone:        "done",
		State(0):         "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}

package research

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dulich/internal/ai"
	"dulich/internal/maps"
	"dulich/internal/modules/researchlog"
)

// Cache is the record cache consulted before the pipeline runs.
type Cache interface {
	Get(ctx context.Context, mode Mode, term string) (*LocationRecord, error)
	Put(ctx context.Context, mode Mode, term string, rec LocationRecord) error
}

// Journal records every produced outcome.
type Journal interface {
	Record(ctx context.Context, e researchlog.Entry) error
}

// NearbyFinder looks up real attractions around an area.
type NearbyFinder interface {
	NearbyAttractions(ctx context.Context, area string) ([]maps.Place, error)
}

// ServiceDeps wires a Service. Only Text is required; nil collaborators are
// skipped.
type ServiceDeps struct {
	Text    *Pipeline
	Vision  map[string]*Pipeline
	Cache   Cache
	Journal Journal
	Nearby  NearbyFinder
}

// Service wraps the pipelines with caching, nearby enrichment and journaling.
// None of these can change the record contract: their failures are logged
// and the pipeline result is returned as is.
type Service struct {
	text    *Pipeline
	vision  map[string]*Pipeline
	cache   Cache
	journal Journal
	nearby  NearbyFinder
}

// NewService creates a Service from deps.
func NewService(deps ServiceDeps) *Service {
	vision := make(map[string]*Pipeline, len(deps.Vision))
	for name, p := range deps.Vision {
		if p != nil {
			vision[name] = p
		}
	}
	return &Service{
		text:    deps.Text,
		vision:  vision,
		cache:   deps.Cache,
		journal: deps.Journal,
		nearby:  deps.Nearby,
	}
}

// Research produces a record (full research) or history text for term.
func (s *Service) Research(ctx context.Context, term string, mode Mode) (Outcome, error) {
	if mode != ModeFullResearch && mode != ModeHistoryOnly {
		return Outcome{}, ErrUnknownMode
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return Outcome{}, ErrEmptySearchTerm
	}
	if s.text == nil {
		return Outcome{}, ErrProviderNotConfigured
	}

	if mode == ModeFullResearch && s.cache != nil {
		rec, err := s.cache.Get(ctx, mode, term)
		if err != nil {
			log.Printf("research: cache get %q: %v", term, err)
		} else if rec != nil {
			out := Outcome{
				Mode:     mode,
				Record:   rec,
				Provider: s.text.Provider(),
				Trace:    []State{StateDone},
				Cached:   true,
			}
			s.record(ctx, term, out)
			return out, nil
		}
	}

	out, err := s.text.Produce(ctx, Request{Mode: mode, SearchTerm: term})
	if err != nil {
		return Outcome{}, err
	}

	if mode == ModeFullResearch && !out.Fallback && out.Record != nil {
		s.enrichNearby(ctx, term, out.Record)
		if s.cache != nil {
			if err := s.cache.Put(ctx, mode, term, *out.Record); err != nil {
				log.Printf("research: cache put %q: %v", term, err)
			}
		}
	}

	s.record(ctx, term, out)
	return out, nil
}

// AnalyzeImage identifies the place in imageData using the named vision
// provider ("ollama" or "gemini").
func (s *Service) AnalyzeImage(ctx context.Context, provider, imageData string) (Outcome, error) {
	if strings.TrimSpace(imageData) == "" {
		return Outcome{}, ErrMissingImage
	}
	p, ok := s.vision[provider]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	media, err := ai.NewMedia(imageData)
	if errors.Is(err, ai.ErrEmptyMedia) {
		return Outcome{}, ErrMissingImage
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	out, err := p.Produce(ctx, Request{Mode: ModeImageAnalysis, Image: media})
	if err != nil {
		return Outcome{}, err
	}
	s.record(ctx, "", out)
	return out, nil
}

// HasVision reports whether a vision pipeline is wired for provider.
func (s *Service) HasVision(provider string) bool {
	_, ok := s.vision[provider]
	return ok
}

func (s *Service) enrichNearby(ctx context.Context, term string, rec *LocationRecord) {
	if s.nearby == nil || len(rec.NearbyPlaces) > 0 || ctx.Err() != nil {
		return
	}
	places, err := s.nearby.NearbyAttractions(ctx, term)
	if err != nil {
		log.Printf("research: nearby lookup %q: %v", term, err)
		return
	}
	rec.NearbyPlaces = nearbyFromPlaces(places)
}

func nearbyFromPlaces(places []maps.Place) []NearbyPlace {
	out := make([]NearbyPlace, 0, len(places))
	for _, p := range places {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		desc := p.Address
		if desc == "" {
			desc = Placeholder
		}
		out = append(out, NearbyPlace{
			Name:                p.Name,
			Category:            p.Category,
			ApproxDistanceKm:    p.DistanceKm,
			ShortDescription:    desc,
			SuggestedActivities: []string{"tham quan", "chụp ảnh"},
		})
	}
	return out
}

func (s *Service) record(ctx context.Context, term string, out Outcome) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	err := s.journal.Record(ctx, researchlog.Entry{
		Mode:      string(out.Mode),
		Term:      term,
		Provider:  out.Provider,
		Fallback:  out.Fallback,
		Reason:    string(out.Reason),
		Cached:    out.Cached,
		LatencyMs: out.Elapsed.Milliseconds(),
	})
	if err != nil {
		log.Printf("research: journal %s %q: %v", out.Mode, term, err)
	}
}

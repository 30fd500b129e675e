package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ErrAreaNotFound is returned when the search term cannot be geocoded.
var ErrAreaNotFound = errors.New("area not found")

const (
	nearbyRadiusMeters = 15000
	nearbyLimit        = 6
	minRating          = 3.5
)

// Place represents a simplified attraction near a researched area.
type Place struct {
	Name       string
	Address    string
	Category   string
	Rating     float32
	PlaceID    string
	DistanceKm float64
}

// PlacesService handles interactions with Google Places and Geocoding APIs.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// NearbyAttractions geocodes area and returns up to six well-rated tourist
// attractions around it, nearest first, with straight-line distances.
func (s *PlacesService) NearbyAttractions(ctx context.Context, area string) ([]Place, error) {
	center, err := s.locate(ctx, area)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    "điểm tham quan gần " + area,
		Location: &center,
		Radius:   nearbyRadiusMeters,
		Language: "vi",
		Region:   "VN",
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	return pickAttractions(area, center, resp.Results), nil
}

// pickAttractions keeps well-rated hits other than the area itself, once
// per place ID, and returns the nearest few.
func pickAttractions(area string, center maps.LatLng, hits []maps.PlacesSearchResult) []Place {
	area = strings.TrimSpace(area)
	seen := make(map[string]struct{}, len(hits))
	results := make([]Place, 0, len(hits))
	for _, r := range hits {
		if r.Rating > 0 && r.Rating < minRating {
			continue
		}
		// The area itself usually comes back as the top hit.
		if strings.EqualFold(strings.TrimSpace(r.Name), area) {
			continue
		}
		if _, dup := seen[r.PlaceID]; dup {
			continue
		}
		seen[r.PlaceID] = struct{}{}

		results = append(results, Place{
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Category:   pickCategory(r.Types),
			Rating:     r.Rating,
			PlaceID:    r.PlaceID,
			DistanceKm: distanceKm(center, r.Geometry.Location),
		})
	}

	nearestFirst(results)
	if len(results) > nearbyLimit {
		results = results[:nearbyLimit]
	}
	return results
}

func (s *PlacesService) locate(ctx context.Context, area string) (maps.LatLng, error) {
	res, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  area,
		Language: "vi",
		Region:   "vn",
	})
	if err != nil {
		return maps.LatLng{}, fmt.Errorf("geocode api error: %w", err)
	}
	if len(res) == 0 {
		return maps.LatLng{}, fmt.Errorf("%w: %q", ErrAreaNotFound, area)
	}
	return res[0].Geometry.Location, nil
}

// genericTypes carry no useful category for a traveller.
var genericTypes = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"premise":           true,
	"political":         true,
	"geocode":           true,
}

func pickCategory(types []string) string {
	for _, t := range types {
		if !genericTypes[t] {
			return t
		}
	}
	return "tourist_attraction"
}


package signal

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/supplier-cli/pkg/geocode"
)

// EarthRadiusKM is the mean Earth radius used by Haversine.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in km between two XY (lon, lat)
// points in degrees.
func Haversine(a, b *geom.Point) float64 {
	lat1, lat2 := a.Y()*math.Pi/180, b.Y()*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceAdapter implements DistanceProvider by geocoding both ends.
type DistanceAdapter struct {
	geocoder geocode.Client
	opts     Options
}

// NewDistanceAdapter wraps a geocoder.
func NewDistanceAdapter(geocoder geocode.Client, opts Options) *DistanceAdapter {
	return &DistanceAdapter{geocoder: geocoder, opts: opts}
}

// Distance implements DistanceProvider. Either location failing to resolve
// makes the signal Unavailable.
func (a *DistanceAdapter) Distance(ctx context.Context, from, to string) Signal[float64] {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return Unavailable[float64]("empty location")
	}
	if a == nil || a.geocoder == nil {
		return Unavailable[float64]("geocoder not configured")
	}
	return lookup(ctx, NameDistance, a.opts, func(ctx context.Context) (float64, error) {
		p1, err := a.resolve(ctx, from)
		if err != nil {
			return 0, err
		}
		p2, err := a.resolve(ctx, to)
		if err != nil {
			return 0, err
		}
		return Haversine(p1, p2), nil
	})
}

func (a *DistanceAdapter) resolve(ctx context.Context, loc string) (*geom.Point, error) {
	res, err := a.geocoder.Geocode(ctx, loc)
	if err != nil {
		return nil, err
	}
	if !res.Matched || res.Point == nil {
		return nil, eris.Errorf("signal: location not found %q", loc)
	}
	return res.Point, nil
}

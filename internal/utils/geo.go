package utils

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

const earthRadiusMeters = 6371000.0

// LatLon is a WGS84 coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineMeters returns the great-circle distance between two points in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// DecodePath decodes a Google encoded polyline into coordinates.
func DecodePath(encoded string) ([]LatLon, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("decoding polyline: %d trailing bytes", len(rest))
	}
	path := make([]LatLon, len(coords))
	for i, c := range coords {
		path[i] = LatLon{Lat: c[0], Lon: c[1]}
	}
	return path, nil
}

// EncodePath encodes coordinates as a Google encoded polyline.
func EncodePath(path []LatLon) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// DistanceToPathMeters returns the shortest distance from p to any segment of path.
// Segments are projected onto a local equirectangular plane, which is accurate at city scale.
// An empty path yields +Inf.
func DistanceToPathMeters(p LatLon, path []LatLon) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return HaversineMeters(p.Lat, p.Lon, path[0].Lat, path[0].Lon)
	}

	cosLat := math.Cos(p.Lat * math.Pi / 180)
	project := func(q LatLon) (float64, float64) {
		x := (q.Lon - p.Lon) * math.Pi / 180 * cosLat * earthRadiusMeters
		y := (q.Lat - p.Lat) * math.Pi / 180 * earthRadiusMeters
		return x, y
	}

	best := math.Inf(1)
	for i := 0; i+1 < len(path); i++ {
		ax, ay := project(path[i])
		bx, by := project(path[i+1])
		if d := distanceToSegment(ax, ay, bx, by); d < best {
			best = d
		}
	}
	return best
}

// distanceToSegment is the distance from the origin to segment AB.
func distanceToSegment(ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(ax, ay)
	}
	t := -(ax*dx + ay*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(ax+t*dx, ay+t*dy)
}

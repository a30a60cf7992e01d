// Package places relates an estimated latitude to known reference cities and
// renders the latitude band as GeoJSON.
package places

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// City is a named reference location. Location is lon/lat, as orb expects.
type City struct {
	Name     string    `json:"name"`
	Location orb.Point `json:"location"`
}

// Lat returns the city's latitude in degrees.
func (c City) Lat() float64 { return c.Location.Lat() }

// Lon returns the city's longitude in degrees.
func (c City) Lon() float64 { return c.Location.Lon() }

// TurkeyBound is the approximate extent of Turkey.
var TurkeyBound = orb.Bound{
	Min: orb.Point{26.0, 36.0},
	Max: orb.Point{45.0, 42.0},
}

// TurkeyCities are the default reference cities.
var TurkeyCities = []City{
	{Name: "İstanbul", Location: orb.Point{28.97, 41.00}},
	{Name: "Ankara", Location: orb.Point{32.86, 39.93}},
	{Name: "İzmir", Location: orb.Point{27.13, 38.41}},
	{Name: "Antalya", Location: orb.Point{30.70, 36.88}},
	{Name: "Adana", Location: orb.Point{35.31, 36.99}},
	{Name: "Gaziantep", Location: orb.Point{37.38, 37.07}},
	{Name: "Diyarbakır", Location: orb.Point{40.23, 37.92}},
	{Name: "Van", Location: orb.Point{43.38, 38.63}},
	{Name: "Trabzon", Location: orb.Point{39.72, 40.98}},
	{Name: "Rize", Location: orb.Point{40.51, 41.20}},
}

// Match is the city whose latitude is closest to an estimate.
type Match struct {
	City City `json:"city"`

	// Distance is the absolute latitude difference in degrees.
	Distance float64 `json:"distance"`

	// InRange reports whether the city lies inside the error margin.
	InRange bool `json:"in_range"`
}

// Nearest finds the reference city closest in latitude to lat. Ties go to the
// city listed first. It returns false when cities is empty.
func Nearest(lat, margin float64, cities []City) (Match, bool) {
	if len(cities) == 0 {
		return Match{}, false
	}

	best := Match{City: cities[0], Distance: math.Abs(cities[0].Lat() - lat)}
	for _, c := range cities[1:] {
		d := math.Abs(c.Lat() - lat)
		if d < best.Distance {
			best = Match{City: c, Distance: d}
		}
	}
	best.InRange = best.Distance <= margin
	return best, true
}

// WithinBand returns the cities whose latitude lies within margin of lat, in
// input order.
func WithinBand(lat, margin float64, cities []City) []City {
	out := make([]City, 0)
	for _, c := range cities {
		if math.Abs(c.Lat()-lat) <= margin {
			out = append(out, c)
		}
	}
	return out
}

// InBound reports whether the latitude line crosses bound.
func InBound(lat float64, bound orb.Bound) bool {
	return lat >= bound.Min.Lat() && lat <= bound.Max.Lat()
}

// BandGeoJSON renders the estimate as a FeatureCollection: the error band
// clipped to the bound's longitudes, the latitude line, the bound outline and
// one point per city.
func BandGeoJSON(lat, margin float64, bound orb.Bound, cities []City) ([]byte, error) {
	if math.IsNaN(lat) || math.IsNaN(margin) || margin < 0 {
		return nil, fmt.Errorf("invalid band: latitude %v, margin %v", lat, margin)
	}

	west, east := bound.Min.Lon(), bound.Max.Lon()
	fc := geojson.NewFeatureCollection()

	region := geojson.NewFeature(bound.ToPolygon())
	region.Properties["kind"] = "region"
	fc.Append(region)

	band := geojson.NewFeature(orb.Polygon{orb.Ring{
		{west, lat - margin},
		{east, lat - margin},
		{east, lat + margin},
		{west, lat + margin},
		{west, lat - margin},
	}})
	band.Properties["kind"] = "band"
	band.Properties["lower"] = lat - margin
	band.Properties["upper"] = lat + margin
	fc.Append(band)

	line := geojson.NewFeature(orb.LineString{{west, lat}, {east, lat}})
	line.Properties["kind"] = "latitude"
	line.Properties["latitude"] = lat
	fc.Append(line)

	for _, c := range cities {
		f := geojson.NewFeature(c.Location)
		f.Properties["kind"] = "city"
		f.Properties["name"] = c.Name
		f.Properties["in_band"] = math.Abs(c.Lat()-lat) <= margin
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding band geojson: %w", err)
	}
	return data, nil
}

package seis

import (
	"fmt"
	"math"
)

// Location holds the station position and sensor orientation of a channel.
// NaN marks an undefined field.
type Location struct {
	Latitude  float64 `cbor:"lat"`
	Longitude float64 `cbor:"lon"`
	Elevation float64 `cbor:"elev"` // m
	Depth     float64 `cbor:"dep"`  // m below surface
	Azimuth   float64 `cbor:"az"`   // degrees clockwise from north
	Incidence float64 `cbor:"inc"`  // degrees from vertical
}

// UnknownLocation returns a Location with every field undefined.
func UnknownLocation() Location {
	nan := math.NaN()
	return Location{Latitude: nan, Longitude: nan, Elevation: nan, Depth: nan, Azimuth: nan, Incidence: nan}
}

func (l Location) fields() [6]float64 {
	return [6]float64{l.Latitude, l.Longitude, l.Elevation, l.Depth, l.Azimuth, l.Incidence}
}

var locationFieldNames = [6]string{"latitude", "longitude", "elevation", "depth", "azimuth", "incidence"}

// IsDefined reports whether any field is defined.
func (l Location) IsDefined() bool {
	for _, v := range l.fields() {
		if !math.IsNaN(v) {
			return true
		}
	}

	return false
}

// locationTolerance absorbs float32 round trips through SAC headers.
const locationTolerance = 1e-4

// conflict returns the name and values of the first field defined on both
// sides with different values.
func (l Location) conflict(o Location) (string, float64, float64, bool) {
	a, b := l.fields(), o.fields()
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		if math.Abs(a[i]-b[i]) > locationTolerance {
			return locationFieldNames[i], a[i], b[i], true
		}
	}

	return "", 0, 0, false
}

// fill returns l with each undefined field taken from o.
func (l Location) fill(o Location) Location {
	a, b := l.fields(), o.fields()
	for i := range a {
		if math.IsNaN(a[i]) {
			a[i] = b[i]
		}
	}

	return Location{Latitude: a[0], Longitude: a[1], Elevation: a[2], Depth: a[3], Azimuth: a[4], Incidence: a[5]}
}

func (l Location) String() string {
	return fmt.Sprintf("(%g, %g, %gm, %gm deep, az %g, inc %g)",
		l.Latitude, l.Longitude, l.Elevation, l.Depth, l.Azimuth, l.Incidence)
}

package model

import (
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Feature is one polling station of the exported document. A station whose
// boundary could not be fetched keeps its properties under a null geometry.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties *StationRecord    `json:"properties"`
}

// FeatureCollection is the document printed at the end of a run.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeature pairs a station's properties with its boundary, which may be
// nil.
func NewFeature(geometry *geojson.Geometry, properties *StationRecord) *Feature {
	return &Feature{
		Type:       "Feature",
		Geometry:   geometry,
		Properties: properties,
	}
}

// NewFeatureCollection wraps features into a document. The features array is
// present even when empty.
func NewFeatureCollection(features []*Feature) *FeatureCollection {
	if features == nil {
		features = []*Feature{}
	}
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

package locationview

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FeatureCollection renders the modal's markers as GeoJSON. GeoJSON uses
// lon,lat order.
func (m *Modal) FeatureCollection() FeatureCollection {
	events := m.Events()
	features := make([]Feature, 0, len(events))

	for _, e := range events {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Longitude, e.Latitude},
			},
			Properties: map[string]any{
				"id":           m.snapshot.ReportID,
				"disastertype": e.DisasterType,
				"description":  m.snapshot.Description,
			},
		}
		if e.Severity != "" {
			f.Properties["severity"] = e.Severity
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

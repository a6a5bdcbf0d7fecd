// Package locationview models the map modal shown for a single report.
package locationview

import "github.com/mr1hm/go-disaster-feed/internal/models"

// Props are the report fields handed to the modal by the feed.
type Props struct {
	Lat          models.Coordinate
	Lng          models.Coordinate
	ReportID     string
	Description  string
	DisasterType string
	Severity     string
}

// PropsFromReport copies the fields the modal needs out of r.
func PropsFromReport(r models.Report) Props {
	return Props{
		Lat:          r.Lat,
		Lng:          r.Lng,
		ReportID:     r.ID.String(),
		Description:  r.Description,
		DisasterType: r.DisasterType,
	}
}

// emptyProps is what the modal holds after it closes.
var emptyProps = Props{
	Lat: models.Coord(0),
	Lng: models.Coord(0),
}

// MapPoint is one marker on the map.
type MapPoint struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DisasterType string  `json:"disastertype"`
	Severity     string  `json:"severity,omitempty"`
}

// Modal keeps its own copy of the props so clearing them upstream does not
// blank it while it is visible.
type Modal struct {
	visible  bool
	snapshot Props
}

func New() *Modal {
	return &Modal{snapshot: emptyProps}
}

// Show makes the modal visible and snapshots p.
func (m *Modal) Show(p Props) {
	m.visible = true
	m.snapshot = p
}

// Update applies new props. They are only taken while the modal is visible.
func (m *Modal) Update(p Props) {
	if m.visible {
		m.snapshot = p
	}
}

func (m *Modal) Visible() bool { return m.visible }
func (m *Modal) Props() Props  { return m.snapshot }

// LocationAvailable requires both coordinates present and non-zero.
func (m *Modal) LocationAvailable() bool {
	return m.snapshot.Lat.Set() && m.snapshot.Lng.Set()
}

// Events returns the single marker to draw, or nothing when there is no
// usable location.
func (m *Modal) Events() []MapPoint {
	if !m.LocationAvailable() {
		return []MapPoint{}
	}
	return []MapPoint{{
		Latitude:     m.snapshot.Lat.Value,
		Longitude:    m.snapshot.Lng.Value,
		DisasterType: m.snapshot.DisasterType,
		Severity:     m.snapshot.Severity,
	}}
}

// Close resets the snapshot to the zero sentinel, hides the modal and then
// calls onClose.
func (m *Modal) Close(onClose func()) {
	m.snapshot = emptyProps
	m.visible = false
	if onClose != nil {
		onClose()
	}
}

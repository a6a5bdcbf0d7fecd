package feed

import "github.com/mr1hm/go-disaster-feed/internal/models"

// View is the state behind one feed page: the raw list, the active category
// and the list derived from both.
type View struct {
	raw      []models.Report
	category models.Category
	visible  []models.Report
}

func NewView(raw []models.Report, category models.Category) *View {
	v := &View{raw: raw, category: category}
	v.recompute()
	return v
}

func (v *View) SetReports(raw []models.Report) {
	v.raw = raw
	v.recompute()
}

// SetCategory changes the filter and the visible list in one step.
func (v *View) SetCategory(category models.Category) {
	v.category = category
	v.recompute()
}

func (v *View) Category() models.Category { return v.category }
func (v *View) Raw() []models.Report      { return v.raw }
func (v *View) Visible() []models.Report  { return v.visible }

func (v *View) recompute() {
	v.visible = Visible(v.raw, v.category)
}

// Selection is the report chosen for map display plus the modal flag.
type Selection struct {
	report *models.Report
	open   bool
}

// Open selects r and shows the modal. A previous selection is replaced.
func (s *Selection) Open(r models.Report) {
	s.report = &r
	s.open = true
}

// Close clears the selection and hides the modal together.
func (s *Selection) Close() {
	s.report = nil
	s.open = false
}

func (s *Selection) IsOpen() bool { return s.open }

func (s *Selection) Report() (models.Report, bool) {
	if s.report == nil {
		return models.Report{}, false
	}
	return *s.report, true
}

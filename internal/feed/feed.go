// Package feed derives the visible report list from the fetched collection
// and tracks which report is selected for map display.
package feed

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
)

// Source is anything that can produce the full report collection.
type Source interface {
	List(ctx context.Context) ([]models.Report, error)
}

type Loader struct {
	source  Source
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewLoader(source Source, metrics *observability.Metrics, logger *slog.Logger) *Loader {
	return &Loader{
		source:  source,
		metrics: metrics,
		logger:  logger,
	}
}

// Load fetches the collection once. A failed fetch is logged and yields an
// empty list; callers never see the error.
func (l *Loader) Load(ctx context.Context) []models.Report {
	reports, err := l.source.List(ctx)
	if err != nil {
		l.logger.Error("error fetching reports", "error", err)
		if l.metrics != nil {
			l.metrics.ReportFetches.WithLabelValues("error").Inc()
		}
		return []models.Report{}
	}

	if l.metrics != nil {
		l.metrics.ReportFetches.WithLabelValues("success").Inc()
		l.metrics.ReportsFetched.Observe(float64(len(reports)))
	}
	l.logger.Debug("fetched reports", "count", len(reports))
	return reports
}

// ParseCategory maps a route segment to a category. An empty segment is All.
func ParseCategory(segment string) models.Category {
	segment = strings.TrimSpace(segment)
	if segment == "" || segment == string(models.CategoryAll) {
		return models.CategoryAll
	}
	return models.Category(segment)
}

// Visible returns the reports matching category, newest first. Reports with
// equal timestamps keep their fetch order. raw is never modified.
func Visible(raw []models.Report, category models.Category) []models.Report {
	out := make([]models.Report, 0, len(raw))
	for _, r := range raw {
		if category == models.CategoryAll || r.DisasterType == string(category) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Report) int {
		return cmp.Compare(b.CreatedAt.Time.UnixNano(), a.CreatedAt.Time.UnixNano())
	})
	return out
}

// Find returns the report with the given id from raw.
func Find(raw []models.Report, id string) (models.Report, bool) {
	for _, r := range raw {
		if r.ID.String() == id {
			return r, true
		}
	}
	return models.Report{}, false
}

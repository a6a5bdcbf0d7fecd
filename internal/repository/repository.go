package repository

import (
	"context"

	"github.com/mr1hm/go-disaster-feed/internal/models"
)

type Filter struct {
	Limit  int
	Offset int
}

// VolunteerRepository stores volunteer interest tied to report ids. Reports
// themselves live upstream and are never stored here.
type VolunteerRepository interface {
	AddVolunteer(ctx context.Context, v *models.VolunteerInterest) error
	ListByReport(ctx context.Context, reportID string, opts Filter) ([]models.VolunteerInterest, error)
	CountByReports(ctx context.Context, reportIDs []string) (map[string]int, error)
}

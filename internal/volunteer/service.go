// Package volunteer records offers of help for a specific report.
package volunteer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	internalgrpc "github.com/mr1hm/go-disaster-feed/internal/grpc"
	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
	"github.com/mr1hm/go-disaster-feed/internal/repository"
)

const (
	maxNameLen    = 100
	maxContactLen = 200
	maxMessageLen = 1000
)

var ErrInvalid = errors.New("invalid volunteer interest")

type Request struct {
	Name    string `json:"name" form:"name"`
	Contact string `json:"contact" form:"contact"`
	Message string `json:"message" form:"message"`
}

type Service struct {
	repo        repository.VolunteerRepository
	broadcaster *internalgrpc.Broadcaster
	metrics     *observability.Metrics
	clock       clockwork.Clock
	logger      *slog.Logger
}

func NewService(repo repository.VolunteerRepository, broadcaster *internalgrpc.Broadcaster, metrics *observability.Metrics, clock clockwork.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// Register stores the interest and notifies live subscribers.
func (s *Service) Register(ctx context.Context, reportID string, req Request) (models.VolunteerInterest, error) {
	reportID = strings.TrimSpace(reportID)
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	req.Message = strings.TrimSpace(req.Message)

	switch {
	case reportID == "":
		return models.VolunteerInterest{}, fmt.Errorf("%w: report id is required", ErrInvalid)
	case req.Name == "":
		return models.VolunteerInterest{}, fmt.Errorf("%w: name is required", ErrInvalid)
	case utf8.RuneCountInString(req.Name) > maxNameLen:
		return models.VolunteerInterest{}, fmt.Errorf("%w: name is too long", ErrInvalid)
	case utf8.RuneCountInString(req.Contact) > maxContactLen:
		return models.VolunteerInterest{}, fmt.Errorf("%w: contact is too long", ErrInvalid)
	case utf8.RuneCountInString(req.Message) > maxMessageLen:
		return models.VolunteerInterest{}, fmt.Errorf("%w: message is too long", ErrInvalid)
	}

	v := models.VolunteerInterest{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		Name:      req.Name,
		Contact:   req.Contact,
		Message:   req.Message,
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.AddVolunteer(ctx, &v); err != nil {
		s.logger.Error("error adding volunteer interest", "report_id", reportID, "error", err)
		return models.VolunteerInterest{}, err
	}

	if s.metrics != nil {
		s.metrics.VolunteersAdded.Inc()
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(v)
	}

	s.logger.Info("volunteer interest recorded", "id", v.ID, "report_id", reportID)
	return v, nil
}

func (s *Service) List(ctx context.Context, reportID string, opts repository.Filter) ([]models.VolunteerInterest, error) {
	return s.repo.ListByReport(ctx, reportID, opts)
}

// Counts returns volunteer counts for the given reports. Failures are logged
// and yield an empty map so the feed still renders.
func (s *Service) Counts(ctx context.Context, reports []models.Report) map[string]int {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID.String())
	}

	counts, err := s.repo.CountByReports(ctx, ids)
	if err != nil {
		s.logger.Error("error counting volunteers", "error", err)
		return map[string]int{}
	}
	return counts
}

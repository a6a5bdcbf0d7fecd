package volunteer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	internalgrpc "github.com/mr1hm/go-disaster-feed/internal/grpc"
	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/repository"
)

type mockRepo struct {
	added []models.VolunteerInterest
	err   error
}

func (m *mockRepo) AddVolunteer(ctx context.Context, v *models.VolunteerInterest) error {
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, *v)
	return nil
}

func (m *mockRepo) ListByReport(ctx context.Context, reportID string, opts repository.Filter) ([]models.VolunteerInterest, error) {
	var out []models.VolunteerInterest
	for _, v := range m.added {
		if v.ReportID == reportID {
			out = append(out, v)
		}
	}
	return out, m.err
}

func (m *mockRepo) CountByReports(ctx context.Context, ids []string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, v := range m.added {
		counts[v.ReportID]++
	}
	return counts, nil
}

func newTestService(repo repository.VolunteerRepository, b *internalgrpc.Broadcaster) (*Service, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	return NewService(repo, b, nil, clock, slog.New(slog.NewTextHandler(io.Discard, nil))), clock
}

func TestService_Register(t *testing.T) {
	repo := &mockRepo{}
	b := internalgrpc.NewBroadcaster(4)
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	svc, clock := newTestService(repo, b)

	got, err := svc.Register(context.Background(), " r1 ", Request{Name: "  Ana ", Contact: "ana@example.com"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated id")
	}
	if got.ReportID != "r1" || got.Name != "Ana" {
		t.Errorf("expected trimmed fields, got %+v", got)
	}
	if !got.CreatedAt.Equal(clock.Now()) {
		t.Errorf("expected created at %v, got %v", clock.Now(), got.CreatedAt)
	}
	if len(repo.added) != 1 {
		t.Errorf("expected 1 stored interest, got %d", len(repo.added))
	}

	select {
	case ev := <-ch:
		if ev.ID != got.ID {
			t.Errorf("expected broadcast of %s, got %s", got.ID, ev.ID)
		}
	default:
		t.Error("expected interest to be broadcast")
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(&mockRepo{}, nil)

	cases := []struct {
		name     string
		reportID string
		req      Request
	}{
		{"missing report", "", Request{Name: "Ana"}},
		{"blank name", "r1", Request{Name: "   "}},
		{"long name", "r1", Request{Name: strings.Repeat("a", 101)}},
		{"long message", "r1", Request{Name: "Ana", Message: strings.Repeat("m", 1001)}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.reportID, tt.req)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestService_RegisterStoreFailure(t *testing.T) {
	svc, _ := newTestService(&mockRepo{err: errors.New("disk full")}, nil)

	_, err := svc.Register(context.Background(), "r1", Request{Name: "Ana"})
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestService_CountsSwallowsErrors(t *testing.T) {
	svc, _ := newTestService(&mockRepo{err: errors.New("boom")}, nil)

	counts := svc.Counts(context.Background(), []models.Report{{ID: "r1"}})
	if counts == nil || len(counts) != 0 {
		t.Errorf("expected empty map, got %v", counts)
	}
}

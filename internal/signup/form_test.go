package signup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockUploader struct {
	mu    sync.Mutex
	urls  map[string]string
	err   error
	delay map[string]time.Duration
	calls atomic.Int64
}

func (m *mockUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	d := m.delay[filename]
	url := m.urls[filename]
	err := m.err
	m.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

type mockRegistrar struct {
	mu      sync.Mutex
	records []models.SignUpRecord
	err     error
}

func (m *mockRegistrar) Register(ctx context.Context, rec models.SignUpRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRegistrar) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForm_SetFields(t *testing.T) {
	f := NewForm(&mockUploader{}, &mockRegistrar{}, nil, discardLogger())

	for name, val := range map[string]string{
		"username": "jdoe",
		"fullName": "Jane Doe",
		"password": "hunter22!",
		"email":    "jane@example.com",
		"bio":      "first responder",
		"website":  "https://jane.example.com",
		"location": "Springfield",
	} {
		if !f.Set(name, val) {
			t.Errorf("expected field %s to be accepted", name)
		}
	}
	if f.Set("profileImg", "https://evil.example.com/x.png") {
		t.Error("image fields must not be settable as text")
	}
	if f.Set("isAdmin", "true") {
		t.Error("unknown fields must be ignored")
	}

	rec := f.Record()
	if rec.Username != "jdoe" || rec.FullName != "Jane Doe" || rec.Location != "Springfield" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ProfileImg != "" {
		t.Errorf("expected empty profileImg, got %q", rec.ProfileImg)
	}
}

func TestForm_SubmitShortPasswordMakesNoNetworkCall(t *testing.T) {
	reg := &mockRegistrar{}
	metrics := observability.NewMetricsForTesting()
	f := NewForm(&mockUploader{}, reg, metrics, discardLogger())
	f.Set("username", "jdoe")

	for _, pw := range []string{"", "short", "1234567", "ñññññññ"} {
		f.Set("password", pw)
		err := f.Submit(context.Background())
		if !errors.Is(err, ErrPasswordTooShort) {
			t.Errorf("password %q: expected ErrPasswordTooShort, got %v", pw, err)
		}
		if f.Error() != MsgPasswordTooShort {
			t.Errorf("password %q: expected length message, got %q", pw, f.Error())
		}
	}

	if reg.count() != 0 {
		t.Errorf("expected no registration calls, got %d", reg.count())
	}
	if v := testutil.ToFloat64(metrics.SignUps.WithLabelValues("invalid")); v != 4 {
		t.Errorf("expected 4 invalid submissions recorded, got %v", v)
	}
}

func TestForm_SubmitRecoversAfterFix(t *testing.T) {
	reg := &mockRegistrar{}
	f := NewForm(&mockUploader{}, reg, nil, discardLogger())

	f.Set("password", "short")
	if err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}

	f.Set("password", "12345678")
	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if f.Error() != "" {
		t.Errorf("expected error cleared, got %q", f.Error())
	}
	if f.Message() != MsgSignUpSucceeded {
		t.Errorf("expected success message, got %q", f.Message())
	}
	if reg.count() != 1 {
		t.Errorf("expected exactly one registration, got %d", reg.count())
	}
}

func TestForm_SubmitNetworkFailure(t *testing.T) {
	reg := &mockRegistrar{err: errors.New("502 bad gateway")}
	f := NewForm(&mockUploader{}, reg, nil, discardLogger())
	f.Set("password", "longenough")

	err := f.Submit(context.Background())
	if !errors.Is(err, ErrSignUpFailed) {
		t.Errorf("expected ErrSignUpFailed, got %v", err)
	}
	if f.Error() != MsgSignUpFailed {
		t.Errorf("expected generic failure message, got %q", f.Error())
	}
	if f.Message() != "" {
		t.Errorf("expected no success message, got %q", f.Message())
	}
}

func TestForm_UploadImageSlots(t *testing.T) {
	up := &mockUploader{urls: map[string]string{
		"me.png":    "https://img.example.com/me.png",
		"cover.jpg": "https://img.example.com/cover.jpg",
	}}
	f := NewForm(up, &mockRegistrar{}, nil, discardLogger())

	if _, err := f.UploadImage(context.Background(), SlotProfile, "me.png", strings.NewReader("a")); err != nil {
		t.Fatalf("profile upload: %v", err)
	}
	if _, err := f.UploadImage(context.Background(), SlotCover, "cover.jpg", strings.NewReader("b")); err != nil {
		t.Fatalf("cover upload: %v", err)
	}

	rec := f.Record()
	if rec.ProfileImg != "https://img.example.com/me.png" {
		t.Errorf("unexpected profileImg %q", rec.ProfileImg)
	}
	if rec.CoverImg != "https://img.example.com/cover.jpg" {
		t.Errorf("unexpected coverImg %q", rec.CoverImg)
	}

	if _, err := f.UploadImage(context.Background(), "banner", "x.png", strings.NewReader("c")); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestForm_UploadFailureLeavesFieldUnset(t *testing.T) {
	up := &mockUploader{err: errors.New("timeout")}
	f := NewForm(up, &mockRegistrar{}, nil, discardLogger())

	_, err := f.UploadImage(context.Background(), SlotProfile, "me.png", strings.NewReader("a"))
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
	if f.Error() != MsgUploadFailed {
		t.Errorf("expected upload message, got %q", f.Error())
	}
	if f.Record().ProfileImg != "" {
		t.Errorf("expected profileImg unset, got %q", f.Record().ProfileImg)
	}
}

func TestForm_ConcurrentUploadsLastWriteWins(t *testing.T) {
	up := &mockUploader{
		urls: map[string]string{
			"slow.png": "https://img.example.com/slow.png",
			"fast.png": "https://img.example.com/fast.png",
		},
		delay: map[string]time.Duration{"slow.png": 50 * time.Millisecond},
	}
	f := NewForm(up, &mockRegistrar{}, nil, discardLogger())

	var wg sync.WaitGroup
	for _, name := range []string{"slow.png", "fast.png"} {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			f.UploadImage(context.Background(), SlotProfile, n, strings.NewReader(n))
		}(name)
	}
	wg.Wait()

	// slow.png was started alongside fast.png but resolved later.
	if got := f.Record().ProfileImg; got != "https://img.example.com/slow.png" {
		t.Errorf("expected the later-resolving upload to win, got %q", got)
	}
}

func TestForm_SubmitSendsUploadedImages(t *testing.T) {
	up := &mockUploader{urls: map[string]string{"me.png": "https://img.example.com/me.png"}}
	reg := &mockRegistrar{}
	f := NewForm(up, reg, nil, discardLogger())

	f.Load(models.SignUpRecord{Username: "jdoe", Password: "correct horse"})
	f.UploadImage(context.Background(), SlotProfile, "me.png", strings.NewReader("a"))
	f.Load(models.SignUpRecord{Username: "jdoe2", Password: "correct horse"})

	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := reg.records[0]
	if got.Username != "jdoe2" {
		t.Errorf("expected latest username, got %q", got.Username)
	}
	if got.ProfileImg != "https://img.example.com/me.png" {
		t.Errorf("expected uploaded image to survive Load, got %q", got.ProfileImg)
	}
}

func TestForm_ValidateBeforeUpload(t *testing.T) {
	up := &mockUploader{}
	f := NewForm(up, &mockRegistrar{}, nil, discardLogger())

	f.Set("password", "short")
	if err := f.Validate(); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if f.Error() != MsgPasswordTooShort {
		t.Errorf("expected length message, got %q", f.Error())
	}

	f.Set("password", "long enough")
	if err := f.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if f.Error() != "" {
		t.Errorf("expected message cleared, got %q", f.Error())
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected no uploads, got %d", up.calls.Load())
	}
}

// Lengths count code points: four emoji are four characters even though
// they are eight UTF-16 units.
func TestForm_PasswordLengthCountsCodePoints(t *testing.T) {
	f := NewForm(&mockUploader{}, &mockRegistrar{}, nil, discardLogger())

	f.Set("password", "🔥🌊🌍🌀")
	if err := f.Validate(); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected four emoji to be too short, got %v", err)
	}

	f.Set("password", "🔥🌊🌍🌀🔥🌊🌍🌀")
	if err := f.Validate(); err != nil {
		t.Errorf("expected eight emoji to pass, got %v", err)
	}
}

func TestForm_SetImage(t *testing.T) {
	f := NewForm(&mockUploader{}, &mockRegistrar{}, nil, discardLogger())

	if err := f.SetImage(SlotCover, "https://img.example.com/c.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Record().CoverImg; got != "https://img.example.com/c.png" {
		t.Errorf("expected cover image kept, got %q", got)
	}

	for _, raw := range []string{"javascript:alert(1)", "/local.png", "https://"} {
		if err := f.SetImage(SlotProfile, raw); !errors.Is(err, ErrInvalidImageURL) {
			t.Errorf("%q: expected ErrInvalidImageURL, got %v", raw, err)
		}
	}
	if err := f.SetImage(Slot("banner"), "https://img.example.com/b.png"); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}
	if f.Record().ProfileImg != "" {
		t.Errorf("expected profile image untouched, got %q", f.Record().ProfileImg)
	}
}

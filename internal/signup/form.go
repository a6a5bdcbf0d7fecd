// Package signup holds the sign-up form state, the image upload step and the
// submission to the user-creation endpoint.
package signup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"unicode/utf8"

	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
)

const MinPasswordLength = 8

// User-facing messages.
const (
	MsgPasswordTooShort = "Password must be at least 8 characters long."
	MsgUploadFailed     = "Failed to upload image."
	MsgSignUpFailed     = "Failed to sign up."
	MsgSignUpSucceeded  = "Sign up successful!"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrUploadFailed     = errors.New("image upload failed")
	ErrSignUpFailed     = errors.New("sign up failed")
	ErrUnknownSlot      = errors.New("unknown image slot")
	ErrInvalidImageURL  = errors.New("invalid image url")
)

// Slot names the record field an uploaded image is written to.
type Slot string

const (
	SlotProfile Slot = "profileImg"
	SlotCover   Slot = "coverImg"
)

type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type Registrar interface {
	Register(ctx context.Context, rec models.SignUpRecord) error
}

// Form is one sign-up attempt. Field edits, uploads and submission may
// arrive from different goroutines; the record is guarded by mu and the
// last write to a field wins.
type Form struct {
	uploader  ImageUploader
	registrar Registrar
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	record  models.SignUpRecord
	errMsg  string
	message string
}

func NewForm(uploader ImageUploader, registrar Registrar, metrics *observability.Metrics, logger *slog.Logger) *Form {
	return &Form{
		uploader:  uploader,
		registrar: registrar,
		metrics:   metrics,
		logger:    logger,
	}
}

// Set updates one text field by its JSON name. It reports whether the name
// was recognised. Image fields are only written by UploadImage.
func (f *Form) Set(name, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "username":
		f.record.Username = value
	case "fullName":
		f.record.FullName = value
	case "password":
		f.record.Password = value
	case "email":
		f.record.Email = value
	case "bio":
		f.record.Bio = value
	case "website":
		f.record.Website = value
	case "location":
		f.record.Location = value
	default:
		return false
	}
	return true
}

// Load replaces the text fields with rec, keeping any uploaded images that
// rec does not carry.
func (f *Form) Load(rec models.SignUpRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, cover := f.record.ProfileImg, f.record.CoverImg
	f.record = rec
	if f.record.ProfileImg == "" {
		f.record.ProfileImg = profile
	}
	if f.record.CoverImg == "" {
		f.record.CoverImg = cover
	}
}

// UploadImage sends the image to the asset host and stores the returned URL
// in the slot's field. On failure the field is left as it was and the form
// shows MsgUploadFailed.
func (f *Form) UploadImage(ctx context.Context, slot Slot, filename string, r io.Reader) (string, error) {
	if slot != SlotProfile && slot != SlotCover {
		return "", ErrUnknownSlot
	}

	imgURL, err := f.uploader.Upload(ctx, filename, r)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.logger.Warn("image upload failed", "slot", slot, "error", err)
		f.errMsg = MsgUploadFailed
		return "", errors.Join(ErrUploadFailed, err)
	}

	switch slot {
	case SlotProfile:
		f.record.ProfileImg = imgURL
	case SlotCover:
		f.record.CoverImg = imgURL
	}
	return imgURL, nil
}

// SetImage restores a URL a previous attempt already uploaded into slot, so
// a retry does not need the file again. Only absolute http(s) URLs are taken.
func (f *Form) SetImage(slot Slot, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidImageURL
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch slot {
	case SlotProfile:
		f.record.ProfileImg = raw
	case SlotCover:
		f.record.CoverImg = raw
	default:
		return ErrUnknownSlot
	}
	return nil
}

// Validate runs the local checks. Callers that upload images first should
// call it before any upload so a rejected attempt never leaves the process.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() error {
	f.errMsg, f.message = "", ""
	if utf8.RuneCountInString(f.record.Password) < MinPasswordLength {
		f.errMsg = MsgPasswordTooShort
		f.count("invalid")
		return ErrPasswordTooShort
	}
	return nil
}

// Submit validates the password locally and, only if it passes, posts the
// record once.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	rec := f.record
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	err := f.registrar.Register(ctx, rec)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.logger.Error("sign up failed", "username", rec.Username, "error", err)
		f.errMsg = MsgSignUpFailed
		f.count("error")
		return errors.Join(ErrSignUpFailed, err)
	}

	f.logger.Info("user signed up", "username", rec.Username)
	f.message = MsgSignUpSucceeded
	f.count("success")
	return nil
}

func (f *Form) count(outcome string) {
	if f.metrics != nil {
		f.metrics.SignUps.WithLabelValues(outcome).Inc()
	}
}

func (f *Form) Record() models.SignUpRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

// Error is the alert shown to the user, if any.
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Message is the success notice, if any.
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

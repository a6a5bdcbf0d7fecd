package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-disaster-feed/internal/feed"
	internalgrpc "github.com/mr1hm/go-disaster-feed/internal/grpc"
	"github.com/mr1hm/go-disaster-feed/internal/locationview"
	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
	"github.com/mr1hm/go-disaster-feed/internal/repository"
	"github.com/mr1hm/go-disaster-feed/internal/signup"
	"github.com/mr1hm/go-disaster-feed/internal/volunteer"
)

type Options struct {
	Reports       *feed.Loader
	Volunteers    *volunteer.Service
	Broadcaster   *internalgrpc.Broadcaster
	Uploader      signup.ImageUploader
	Registrar     signup.Registrar
	Metrics       *observability.Metrics
	Logger        *slog.Logger
	MaxUploadSize int64
	RedirectPath  string
	RedirectDelay time.Duration
}

type Handler struct {
	opts Options
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 << 20
	}
	if opts.RedirectPath == "" {
		opts.RedirectPath = "/"
	}
	return &Handler{opts: opts}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/categories", h.getCategories)
	api.GET("/reports", h.getReports)
	api.GET("/reports/:id/location", h.getLocation)
	api.GET("/reports/:id/volunteers", h.listVolunteers)
	api.POST("/reports/:id/volunteers", h.createVolunteer)
	api.GET("/volunteers/stream", h.streamVolunteers)
	api.POST("/uploads", h.uploadImage)
	api.POST("/signup", h.signUp)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type categoryResponse struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (h *Handler) getCategories(c *gin.Context) {
	out := make([]categoryResponse, 0, len(models.Categories)+1)
	for _, cat := range models.Categories {
		out = append(out, categoryResponse{Name: cat.String(), Icon: cat.Icon()})
	}
	out = append(out, categoryResponse{Name: models.CategoryAll.String()})
	c.JSON(http.StatusOK, out)
}

// getReports fetches once per call; an upstream failure is an empty list.
func (h *Handler) getReports(c *gin.Context) {
	category := feed.ParseCategory(c.Query("category"))
	raw := h.opts.Reports.Load(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"reports":  feed.Visible(raw, category),
	})
}

func (h *Handler) getLocation(c *gin.Context) {
	raw := h.opts.Reports.Load(c.Request.Context())
	report, ok := feed.Find(raw, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	modal := locationview.New()
	modal.Show(locationview.PropsFromReport(report))

	c.JSON(http.StatusOK, gin.H{
		"reportId":    report.ID,
		"available":   modal.LocationAvailable(),
		"description": report.Description,
		"location":    modal.FeatureCollection(),
	})
}

func (h *Handler) listVolunteers(c *gin.Context) {
	filter := repository.Filter{Limit: 50}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}

	interests, err := h.opts.Volunteers.List(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch volunteers"})
		return
	}
	c.JSON(http.StatusOK, interests)
}

func (h *Handler) createVolunteer(c *gin.Context) {
	var req volunteer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.opts.Volunteers.Register(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, volunteer.ErrInvalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record volunteer"})
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) streamVolunteers(c *gin.Context) {
	id, ch := h.opts.Broadcaster.Subscribe()
	defer h.opts.Broadcaster.Unsubscribe(id)

	if h.opts.Metrics != nil {
		h.opts.Metrics.StreamSubscribers.Inc()
		defer h.opts.Metrics.StreamSubscribers.Dec()
	}

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("volunteer", v)
			return true
		}
	})
}

func (h *Handler) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadSize)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}
	defer f.Close()

	url, err := h.opts.Uploader.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.opts.Logger.Warn("image upload failed", "filename", fh.Filename, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": signup.MsgUploadFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) signUp(c *gin.Context) {
	var rec models.SignUpRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	form := signup.NewForm(h.opts.Uploader, h.opts.Registrar, h.opts.Metrics, h.opts.Logger)
	form.Load(rec)

	err := form.Submit(c.Request.Context())
	switch {
	case errors.Is(err, signup.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": form.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": form.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         form.Message(),
		"redirect":        h.opts.RedirectPath,
		"redirectAfterMs": h.opts.RedirectDelay.Milliseconds(),
	})
}

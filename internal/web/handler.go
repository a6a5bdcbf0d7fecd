// Package web serves the server-rendered pages: the report feed with its map
// modal and volunteer form, and the sign-up form.
package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-disaster-feed/internal/feed"
	"github.com/mr1hm/go-disaster-feed/internal/locationview"
	"github.com/mr1hm/go-disaster-feed/internal/models"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
	"github.com/mr1hm/go-disaster-feed/internal/signup"
	"github.com/mr1hm/go-disaster-feed/internal/volunteer"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Text fields accepted from the sign-up form, in render order.
var signUpFields = []string{"username", "fullName", "password", "email", "bio", "website", "location"}

type Options struct {
	Reports       *feed.Loader
	Volunteers    *volunteer.Service
	Uploader      signup.ImageUploader
	Registrar     signup.Registrar
	Metrics       *observability.Metrics
	Logger        *slog.Logger
	Clock         clockwork.Clock
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
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
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
	r.SetHTMLTemplate(templates)

	r.GET("/", h.dashboard)
	r.GET("/emergencies", func(c *gin.Context) {
		c.Redirect(http.StatusFound, categoryPath(models.CategoryAll))
	})
	r.GET("/emergencies/:category", h.feedPage)
	r.GET("/emergencies/:category/map/:id", h.feedPage)
	r.POST("/emergencies/:category/volunteer/:id", h.volunteer)

	r.GET("/signup", h.signUpPage)
	r.POST("/signup", h.signUp)
}

type page struct {
	Title   string
	Refresh string
}

func (h *Handler) dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", page{Title: "Emergency Dashboard"})
}

type categoryLink struct {
	Name   string
	Icon   string
	Active bool
}

type card struct {
	DisasterType string
	Icon         string
	Location     string
	Submitted    string
	MapURL       string
	VolunteerURL string
	Volunteers   int
}

type flash struct {
	Variant string
	Text    string
}

type modalView struct {
	Available   bool
	Description string
	CloseURL    string
	GeoJSON     locationview.FeatureCollection
}

type feedView struct {
	page
	Categories []categoryLink
	AllActive  bool
	Cards      []card
	Flash      *flash
	Modal      *modalView
}

// feedPage renders the feed for the category in the path. With an :id
// segment the location modal is open over the feed for that report.
func (h *Handler) feedPage(c *gin.Context) {
	ctx := c.Request.Context()
	category := feed.ParseCategory(c.Param("category"))
	view := feed.NewView(h.opts.Reports.Load(ctx), category)

	var sel feed.Selection
	if id := c.Param("id"); id != "" {
		if r, ok := feed.Find(view.Raw(), id); ok {
			sel.Open(r)
		}
	}

	visible := view.Visible()
	counts := h.opts.Volunteers.Counts(ctx, visible)
	now := h.opts.Clock.Now()

	data := feedView{
		page:      page{Title: "Current Situation"},
		AllActive: category == models.CategoryAll,
		Cards:     make([]card, 0, len(visible)),
		Flash:     flashFromQuery(c),
	}
	for _, cat := range models.Categories {
		data.Categories = append(data.Categories, categoryLink{
			Name:   cat.String(),
			Icon:   cat.Icon(),
			Active: cat == category,
		})
	}
	for _, r := range visible {
		id := r.ID.String()
		data.Cards = append(data.Cards, card{
			DisasterType: r.DisasterType,
			Icon:         models.Category(r.DisasterType).Icon(),
			Location:     r.Location,
			Submitted:    feed.TimeAgo(now, r.CreatedAt.Time),
			MapURL:       categoryPath(category) + "/map/" + url.PathEscape(id),
			VolunteerURL: categoryPath(category) + "/volunteer/" + url.PathEscape(id),
			Volunteers:   counts[id],
		})
	}

	if r, ok := sel.Report(); ok && sel.IsOpen() {
		modal := locationview.New()
		modal.Show(locationview.PropsFromReport(r))
		data.Modal = &modalView{
			Available:   modal.LocationAvailable(),
			Description: modal.Props().Description,
			CloseURL:    categoryPath(category),
			GeoJSON:     modal.FeatureCollection(),
		}
	} else if c.Param("id") != "" {
		c.HTML(http.StatusNotFound, "feed.html", data)
		return
	}

	c.HTML(http.StatusOK, "feed.html", data)
}

func (h *Handler) volunteer(c *gin.Context) {
	category := feed.ParseCategory(c.Param("category"))
	back := categoryPath(category)

	var req volunteer.Request
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, back+"?volunteer=invalid")
		return
	}

	_, err := h.opts.Volunteers.Register(c.Request.Context(), c.Param("id"), req)
	switch {
	case errors.Is(err, volunteer.ErrInvalid):
		c.Redirect(http.StatusSeeOther, back+"?volunteer=invalid")
	case err != nil:
		c.Redirect(http.StatusSeeOther, back+"?volunteer=failed")
	default:
		c.Redirect(http.StatusSeeOther, back+"?volunteer=ok")
	}
}

func flashFromQuery(c *gin.Context) *flash {
	switch c.Query("volunteer") {
	case "ok":
		return &flash{Variant: "success", Text: "Thank you for volunteering!"}
	case "invalid":
		return &flash{Variant: "warning", Text: "Please tell us your name to volunteer."}
	case "failed":
		return &flash{Variant: "danger", Text: "Failed to record your interest. Please try again."}
	}
	return nil
}

type signUpView struct {
	page
	Record  models.SignUpRecord
	Error   string
	Message string
}

type signUpSuccessView struct {
	page
	Message      string
	RedirectPath string
}

func (h *Handler) signUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", signUpView{page: page{Title: "Sign Up"}})
}

// signUp validates locally, uploads any attached images, then submits the
// record. Nothing reaches the asset host for an attempt that fails
// validation, and a failed upload stops the attempt before anything is
// posted upstream. Images uploaded by an earlier failed attempt come back as
// hidden URL fields and are kept unless a new file replaces them.
func (h *Handler) signUp(c *gin.Context) {
	// two images plus the text fields
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.opts.MaxUploadSize+1<<20)

	form := signup.NewForm(h.opts.Uploader, h.opts.Registrar, h.opts.Metrics, h.opts.Logger)
	for _, name := range signUpFields {
		form.Set(name, c.PostForm(name))
	}
	for _, slot := range []signup.Slot{signup.SlotProfile, signup.SlotCover} {
		if prev := c.PostForm(keptImageField(slot)); prev != "" {
			if err := form.SetImage(slot, prev); err != nil {
				h.opts.Logger.Warn("ignoring kept image", "slot", slot, "error", err)
			}
		}
	}

	if err := form.Validate(); err != nil {
		h.renderSignUp(c, http.StatusBadRequest, form, form.Error())
		return
	}

	for _, slot := range []signup.Slot{signup.SlotProfile, signup.SlotCover} {
		fh, err := c.FormFile(string(slot))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			h.renderSignUp(c, http.StatusBadRequest, form, signup.MsgUploadFailed)
			return
		}
		if err := h.upload(c, form, slot, fh); err != nil {
			h.renderSignUp(c, http.StatusBadGateway, form, signup.MsgUploadFailed)
			return
		}
	}

	err := form.Submit(c.Request.Context())
	switch {
	case errors.Is(err, signup.ErrPasswordTooShort):
		h.renderSignUp(c, http.StatusBadRequest, form, form.Error())
		return
	case err != nil:
		h.renderSignUp(c, http.StatusBadGateway, form, form.Error())
		return
	}

	seconds := int(h.opts.RedirectDelay.Round(time.Second) / time.Second)
	c.Header("Refresh", strconv.Itoa(seconds)+"; url="+h.opts.RedirectPath)
	c.HTML(http.StatusCreated, "signup_success.html", signUpSuccessView{
		page: page{
			Title:   "Sign Up",
			Refresh: strconv.Itoa(seconds) + ";url=" + h.opts.RedirectPath,
		},
		Message:      form.Message(),
		RedirectPath: h.opts.RedirectPath,
	})
}

func (h *Handler) upload(c *gin.Context, form *signup.Form, slot signup.Slot, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = form.UploadImage(c.Request.Context(), slot, fh.Filename, f)
	return err
}

// renderSignUp re-renders the form with what the user typed. The password is
// never echoed back.
func (h *Handler) renderSignUp(c *gin.Context, status int, form *signup.Form, errMsg string) {
	rec := form.Record()
	rec.Password = ""
	c.HTML(status, "signup.html", signUpView{
		page:   page{Title: "Sign Up"},
		Record: rec,
		Error:  errMsg,
	})
}

// keptImageField names the hidden input carrying an already uploaded URL.
func keptImageField(slot signup.Slot) string {
	return string(slot) + "Url"
}

func categoryPath(category models.Category) string {
	return "/emergencies/" + url.PathEscape(category.String())
}

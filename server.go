package main

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zachkp/portfolio/internal/assetcache"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/reconnect"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/Zachkp/portfolio/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

// honeypotField is the hidden input only bots fill in.
const honeypotField = "website"

type server struct {
	cfg          *config.Config
	log          store.SubmissionLog
	pending      *contact.PendingSlot
	submitter    *contact.Submitter
	watcher      *reconnect.Watcher
	connectivity contact.Connectivity
	feed         *contact.Feed
	cache        *assetcache.Controller
	metrics      *metrics.Metrics
	registry     *prometheus.Registry
	admin        *adminAuth
}

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

func (s *server) routes() []route {
	return []route{
		{http.MethodGet, "/", s.index},
		{http.MethodGet, "/index.html", s.index},
		{http.MethodGet, "/contact-form", s.contactForm},
		{http.MethodGet, "/work-content", s.workContent},
		{http.MethodGet, "/education-content", s.educationContent},
		{http.MethodGet, "/privacy", s.privacy},
		{http.MethodPost, "/contact", s.submitContact},
		{http.MethodPost, "/contact/validate/:field", s.validateField},
		{http.MethodGet, "/theme", s.getTheme},
		{http.MethodPost, "/theme", s.toggleTheme},
		{http.MethodPost, "/theme/system", s.systemTheme},
	}
}

func newTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(recoverPage))
	r.SetHTMLTemplate(newTemplates())

	// Cache-first in front of everything the manifest lists.
	r.Use(s.cache.Middleware())

	for _, rt := range s.routes() {
		r.Handle(rt.method, rt.path, rt.handler)
	}

	dir := s.cfg.StaticDir
	r.StaticFile("/style.css", filepath.Join(dir, "style.css"))
	r.StaticFile("/script.js", filepath.Join(dir, "script.js"))
	r.StaticFile("/manifest.json", filepath.Join(dir, "manifest.json"))
	r.Static("/Images", filepath.Join(dir, "Images"))
	r.Static("/static", dir)

	s.setupAdminRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "error-notification.html", gin.H{
			"kind":    contact.KindError,
			"message": "Page not found.",
		})
	})
	return r
}

// recoverPage turns a panic into a non-fatal notification.
func recoverPage(c *gin.Context, recovered any) {
	slog.Error("Unhandled error", "path", c.Request.URL.Path, "panic", recovered)
	c.HTML(http.StatusInternalServerError, "error-notification.html", gin.H{
		"kind":    contact.KindError,
		"message": "Something went wrong. Please refresh the page.",
	})
	c.Abort()
}

func (s *server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"aboutMe":  AboutMe,
		"tagline":  Tagline,
		"projects": Projects,
	})
}

func (s *server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title":     "Contact Me",
		"fields":    contactFieldViews(contact.Form{}, nil),
		"honeypot":  honeypotField,
		"fallback":  s.cfg.FallbackEmail,
		"liveDelay": contact.LiveDelay.Milliseconds(),
	})
}

func (s *server) workContent(c *gin.Context) {
	c.HTML(http.StatusOK, "work-content.html", gin.H{
		"positions": Work,
	})
}

func (s *server) educationContent(c *gin.Context) {
	c.HTML(http.StatusOK, "education-content.html", gin.H{
		"positions": Education,
	})
}

func (s *server) privacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title": "Privacy Policy",
	})
}

func formFromRequest(c *gin.Context) contact.Form {
	return contact.Form{
		Name:      c.PostForm(contact.FieldName),
		Email:     c.PostForm(contact.FieldEmail),
		Subject:   c.PostForm(contact.FieldSubject),
		Message:   c.PostForm(contact.FieldMessage),
		Honeypot:  c.PostForm(honeypotField),
		UserAgent: c.GetHeader("User-Agent"),
		Referrer:  c.GetHeader("Referer"),
	}
}

type fieldView struct {
	Name  string
	Label string
	Value string
	Error string
}

func contactFieldViews(f contact.Form, errs map[string]string) []fieldView {
	out := make([]fieldView, 0, len(contact.Fields))
	for _, name := range contact.Fields {
		out = append(out, fieldView{
			Name:  name,
			Label: strings.ToUpper(name[:1]) + name[1:],
			Value: f.Value(name),
			Error: errs[name],
		})
	}
	return out
}

// Handle contact form submission with HTMX
func (s *server) submitContact(c *gin.Context) {
	if c.ContentType() == gin.MIMEJSON {
		s.submitContactJSON(c)
		return
	}
	form := formFromRequest(c)
	ui := &contact.Recorder{}
	res := s.submitter.Submit(c.Request.Context(), form, ui)

	// Bots get an empty, successful-looking reply.
	if res.Spam {
		c.Status(http.StatusOK)
		return
	}

	// A successful send clears the form; anything else keeps what was typed.
	if ui.Resets > 0 {
		form = contact.Form{}
	}
	c.HTML(http.StatusOK, "contact-result.html", gin.H{
		"state":         res.State.String(),
		"notifications": ui.Notifications,
		"announcements": ui.Announcements,
		"status":        lastOf(ui.Statuses),
		"fields":        contactFieldViews(form, ui.FieldErrors),
		"honeypot":      honeypotField,
		"fallback":      s.cfg.FallbackEmail,
		"liveDelay":     contact.LiveDelay.Milliseconds(),
	})
}

// submitContactJSON serves scripted clients posting a JSON object. Fields
// that are not strings count as empty.
func (s *server) submitContactJSON(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	form := contact.Form{
		Name:      contact.SanitizeValue(body[contact.FieldName]),
		Email:     contact.SanitizeValue(body[contact.FieldEmail]),
		Subject:   contact.SanitizeValue(body[contact.FieldSubject]),
		Message:   contact.SanitizeValue(body[contact.FieldMessage]),
		Honeypot:  contact.SanitizeValue(body[honeypotField]),
		UserAgent: c.GetHeader("User-Agent"),
		Referrer:  c.GetHeader("Referer"),
	}
	ui := &contact.Recorder{}
	res := s.submitter.Submit(c.Request.Context(), form, ui)
	if res.Spam {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":         res.State.String(),
		"notifications": ui.Notifications,
		"fieldErrors":   ui.FieldErrors,
	})
}

// validateField answers the per-field live check. The HTMX trigger on the
// input carries the debounce delay.
func (s *server) validateField(c *gin.Context) {
	field := c.Param("field")
	if _, ok := contact.Rules[field]; !ok {
		c.Status(http.StatusNotFound)
		return
	}
	res := contact.ValidateField(field, c.PostForm(field))
	c.HTML(http.StatusOK, "field-error.html", gin.H{
		"field":   field,
		"valid":   res.Valid,
		"message": res.Message,
	})
}

func lastOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// systemDark reads the visitor's colour-scheme preference from the client
// hint header, or from ?system=dark when the page reports it itself.
func systemDark(c *gin.Context) bool {
	if v := c.Query("system"); v != "" {
		return v == string(theme.Dark)
	}
	return strings.Trim(c.GetHeader("Sec-CH-Prefers-Color-Scheme"), `"`) == string(theme.Dark)
}

func (s *server) getTheme(c *gin.Context) {
	svc := theme.NewService(newCookieKV(c))
	t, err := svc.Current(c.Request.Context(), systemDark(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	manual, _ := svc.Manual(c.Request.Context())
	c.Header("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	c.Header("Vary", "Sec-CH-Prefers-Color-Scheme, Cookie")
	c.JSON(http.StatusOK, gin.H{"theme": t, "manual": manual})
}

func (s *server) toggleTheme(c *gin.Context) {
	t, err := theme.NewService(newCookieKV(c)).Toggle(c.Request.Context(), systemDark(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"theme":    t,
		"manual":   true,
		"announce": "Switched to " + string(t) + " theme",
	})
}

// systemTheme is called by the page when the OS preference changes.
func (s *server) systemTheme(c *gin.Context) {
	t, applied, err := theme.NewService(newCookieKV(c)).SystemChanged(c.Request.Context(), systemDark(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": t, "applied": applied})
}

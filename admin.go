// admin.go - cookie-protected view of the contact pipeline and asset cache
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/store"
)

const adminCookie = "admin_token"

type PendingView struct {
	Present bool                    `json:"present"`
	Message *contact.ContactMessage `json:"message,omitempty"`
}

type CacheView struct {
	Version string   `json:"version"`
	Names   []string `json:"names"`
}

type AdminStats struct {
	Counts        map[string]int64       `json:"counts"`
	Recent        []store.Submission     `json:"recent"`
	Pending       PendingView            `json:"pending"`
	Cache         CacheView              `json:"cache"`
	Online        bool                   `json:"online"`
	Notifications []contact.Notification `json:"notifications"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// adminAuth holds the session token and the salt used to log client
// addresses without storing them.
type adminAuth struct {
	username string
	password string
	token    string
	salt     string
}

func newAdminAuth(username, password string) *adminAuth {
	a := &adminAuth{
		username: username,
		password: password,
		token:    generateAdminToken(),
		salt:     generateAdminToken(),
	}
	slog.Info("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		slog.Debug("Admin token (dev only)", "token", a.token)
	}
	return a
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		logging.Fatal("Failed to generate admin token", "error", err)
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP)
func (a *adminAuth) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *adminAuth) check(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(a.username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(a.password))
	return u&p == 1
}

// Middleware to check admin authentication
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *server) adminStats(c *gin.Context) (*AdminStats, error) {
	ctx := c.Request.Context()
	stats := &AdminStats{
		Online:        s.connectivity.Online(),
		Notifications: s.feed.Items(),
		Cache: CacheView{
			Version: s.cache.Version(),
			Names:   s.cache.Storage().Keys(),
		},
		GeneratedAt: time.Now().UTC(),
	}

	var err error
	if stats.Counts, err = s.log.Counts(ctx); err != nil {
		return nil, err
	}
	if stats.Recent, err = s.log.Recent(ctx, 50); err != nil {
		return nil, err
	}

	msg, ok, err := s.pending.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		stats.Pending = PendingView{Present: true, Message: &msg}
	}
	return stats, nil
}

// Setup all admin routes
func (s *server) setupAdminRoutes(r *gin.Engine) {
	a := s.admin

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if a.check(c.PostForm("username"), c.PostForm("password")) {
			// Set secure cookie (24 hours)
			c.SetCookie(adminCookie, a.token, 3600*24, "/admin", "", false, true)
			slog.Info("Admin login successful", "client", a.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		slog.Warn("Failed admin login attempt", "client", a.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		slog.Info("Admin logout", "client", a.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			slog.Error("Error loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// Resend the pending message now instead of waiting for a reconnect.
	adminGroup.POST("/pending/flush", func(c *gin.Context) {
		res, err := s.watcher.HandleOnline(c.Request.Context())
		if err != nil {
			slog.Error("Manual flush failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Pending message flushed by admin", "result", res.String(), "client", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"result": res.String()})
	})

	adminGroup.DELETE("/pending", func(c *gin.Context) {
		if err := s.pending.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear pending message"})
			return
		}
		s.metrics.SetPending(false)
		slog.Info("Pending message discarded by admin", "client", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Pending message cleared"})
	})

	// Admin statistics export (for backups or analysis)
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		slog.Info("Admin stats exported", "client", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/httpmiddleware"
	"classattend/internal/logging"
	"classattend/internal/metrics"
	"classattend/internal/roster"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators the router needs.
type Deps struct {
	Attendance *attendance.Service
	Roster     *roster.Service
	Logger     *zap.Logger

	SigningKey string
	Issuer     string

	// Limiter is optional; nil disables rate limiting.
	Limiter        httpmiddleware.Limiter
	CORSOrigins    []string
	MetricsEnabled bool
	Production     bool
	Health         map[string]HealthCheck
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Gin(d.Logger, "/healthz", "/metrics"))
	r.Use(metrics.Gin())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders(d.Production))
	if d.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(d.Limiter, d.Logger))
	}

	if d.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.GET("/healthz", healthz(d.Health))

	h := &handler{att: d.Attendance, roster: d.Roster, log: d.Logger}
	teacher := auth.RequireRole(auth.RoleTeacher)
	anyone := auth.RequireRole(auth.RoleTeacher, auth.RoleStudent)

	api := r.Group("/api", auth.Authenticate(d.SigningKey, d.Issuer))
	{
		api.POST("/attendance", teacher, h.submit)
		api.GET("/attendance/course/:courseId", anyone, h.listByCourse)
		api.PUT("/attendance/course/:courseId", teacher, h.edit)
		api.GET("/attendance/course/:courseId/sheet", teacher, h.sheet)
		api.GET("/attendance/course/:courseId/report", teacher, h.report)

		api.GET("/courses", anyone, h.listCourses)
		api.GET("/courses/:id", anyone, h.getCourse)

		api.GET("/students", teacher, h.listStudents)
		api.GET("/students/:id", anyone, h.getStudent)
		api.GET("/students/:id/attendance/:courseId", anyone, h.studentSummary)

		api.GET("/teachers", anyone, h.listTeachers)
		api.GET("/teachers/:id", anyone, h.getTeacher)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			healthy := check(ctx)
			body[name] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

// securityHeaders sets the usual browser hardening headers; HSTS only in production.
func securityHeaders(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if production {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

package http

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"ai-quiz-service/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles what the router exposes.
type Services struct {
	Auth      *app.AuthService
	Generator app.Generator
	Scores    *app.ScoreService
	Notifier  *app.ReportNotifier
	Attempts  *app.AttemptService
}

// NewRouter wires the REST and WebSocket routes. An empty allowedOrigins list allows any origin.
func NewRouter(svc Services, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		r.Use(accessLogger(gin.DefaultWriter))
	}
	r.Use(cors.New(corsConfig(allowedOrigins)))

	h := &Handlers{
		auth:      svc.Auth,
		generator: svc.Generator,
		scores:    svc.Scores,
		notifier:  svc.Notifier,
		attempts:  svc.Attempts,
	}
	ws := NewWSHandler(svc.Attempts, allowedOrigins)

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/quiz", h.GenerateQuiz)

		authed := api.Group("", RequireUser(svc.Auth, false))
		authed.GET("/auth/user", h.CurrentUser)
		authed.POST("/scores", h.SaveScore)
		authed.GET("/scores", h.ListScores)
		authed.GET("/report/:id", h.GetReport)
		authed.POST("/send-report", h.SendReport)
		authed.GET("/attempts/:id", h.GetAttempt)

		api.GET("/attempts/ws", RequireUser(svc.Auth, true), ws.Serve)
	}
	return r
}

// accessLogger is gin's request logger with the WebSocket token query parameter masked.
func accessLogger(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		Formatter: redactedLogFormatter,
	})
}

func redactedLogFormatter(param gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		redactQuery(param.Path),
		param.ErrorMessage,
	)
}

func redactQuery(path string) string {
	base, raw, ok := strings.Cut(path, "?")
	if !ok {
		return path
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return base + "?REDACTED"
	}
	if _, found := q["token"]; !found {
		return path
	}
	q.Set("token", "REDACTED")
	return base + "?" + q.Encode()
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cfg
}

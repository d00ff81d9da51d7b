package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/metrics"
	"github.com/forPelevin/manimgen/internal/types"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	pageTitle       = "AI-driven Educational Video Generator"
	pageDescription = "Provide a prompt describing the animation or visualization you want. " +
		"The app will generate a Manim script using Groq LLM and render it as a video."
	pageFooter = "Powered by Manim, Go, and Groq LLM"
)

// Runner executes one generation run.
type Runner interface {
	Run(ctx context.Context, req types.GenerationRequest, onEvent func(types.Event)) (types.Result, error)
}

type Server struct {
	runner    Runner
	mediaRoot string
	quality   string
	log       zerolog.Logger
	engine    *gin.Engine
}

type Options struct {
	// MediaRoot is the directory manim renders into; it is served under /media.
	MediaRoot string
	// Quality is shown on the page next to the render stage.
	Quality string
}

// APIResponse is the JSON envelope of /api/generate and the final websocket frame.
type APIResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Result    types.Result `json:"result"`
	VideoURL  string       `json:"video_url,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func New(runner Runner, opts Options, log zerolog.Logger) *Server {
	s := &Server{
		runner:    runner,
		mediaRoot: opts.MediaRoot,
		quality:   opts.Quality,
		log:       log,
	}
	s.engine = s.routes()
	return s
}

// Handler is the full HTTP stack: CORS and panic recovery around the router.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.log}),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(s.engine))
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.tmpl")))

	r.GET("/", s.page)
	r.GET("/api/health", s.health)
	r.POST("/api/generate", s.generate)
	r.GET("/ws/generate", s.generateWS)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if s.mediaRoot != "" {
		r.Static("/media", s.mediaRoot)
	}
	return r
}

func (s *Server) page(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html.tmpl", gin.H{
		"Title":       pageTitle,
		"Description": pageDescription,
		"Footer":      pageFooter,
		"Quality":     s.quality,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) generate(c *gin.Context) {
	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Message:   fmt.Sprintf("invalid request body: %v", err),
			Timestamp: time.Now(),
		})
		return
	}

	// A run is never aborted once started, even if the client goes away.
	res, err := s.runner.Run(context.WithoutCancel(c.Request.Context()), req, nil)
	c.JSON(statusFor(err), s.response(res, err))
}

func (s *Server) response(res types.Result, err error) APIResponse {
	out := APIResponse{
		Success:   err == nil && res.Succeeded(),
		Message:   res.Message,
		Result:    res,
		Timestamp: time.Now(),
	}
	if out.Success {
		out.VideoURL = s.videoURL(res.VideoPath)
	}
	return out
}

// videoURL maps a located video to its /media URL, or "" when the file is
// outside the served directory.
func (s *Server) videoURL(videoPath string) string {
	if s.mediaRoot == "" || videoPath == "" {
		return ""
	}
	root, err := filepath.Abs(s.mediaRoot)
	if err != nil {
		return ""
	}
	p, err := filepath.Abs(videoPath)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return "/media/" + filepath.ToSlash(rel)
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindService:
		return http.StatusBadGateway
	case apperr.KindRender:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

type recoveryLogger struct{ log zerolog.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

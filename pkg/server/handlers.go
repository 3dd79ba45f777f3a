package server

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/nikogura/sop-writer/pkg/profile"
	"github.com/nikogura/sop-writer/pkg/renderer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-Id"

// Form limits. Essays are a few thousand words at most.
const (
	maxFormBytes     = 256 << 10
	maxDownloadBytes = 512 << 10
)

type ctxKey int

const requestIDKey ctxKey = iota

// input is one rendered form control.
type input struct {
	profile.Field
	Value   string
	Missing bool
}

type formPage struct {
	Inputs   []input
	Errors   []string
	MinWords string
	MaxWords string
	FormMin  int
	FormMax  int
	Step     int
}

type resultPage struct {
	Text        string
	Summary     string
	Name        string
	Institution string
	Program     string
	Filename    string
}

type errorPage struct {
	Message   string
	RequestID string
}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) (id string) {
	id, _ = ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			s.renderError(w, r, http.StatusTooManyRequests, "Too many requests. Please wait a minute before generating another SOP.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	page := newFormPage(profile.ApplicantProfile{}, strconv.Itoa(profile.DefaultMinWords), strconv.Itoa(profile.DefaultMaxWords), nil)
	s.render(w, r, http.StatusOK, "form", page)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	err := r.ParseForm()
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	var p profile.ApplicantProfile
	for _, f := range profile.Fields {
		p.Set(f.Key, r.PostForm.Get(f.Key))
	}
	p.Normalize()

	minRaw := strings.TrimSpace(r.PostForm.Get("min_words"))
	maxRaw := strings.TrimSpace(r.PostForm.Get("max_words"))
	b := profile.WordBudget{Min: atoiOrZero(minRaw), Max: atoiOrZero(maxRaw)}

	log := s.logger.With(zap.String("request_id", RequestID(r.Context())))

	err = profile.ValidateForm(p, b)
	if err != nil {
		s.metrics.record(essay.Essay{}, err)
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			log.Info("submission rejected", zap.Error(err))
			s.render(w, r, http.StatusUnprocessableEntity, "form", newFormPage(p, minRaw, maxRaw, verr))
			return
		}
		log.Error("validation failed", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "The submission could not be checked.")
		return
	}

	opts := make([]essay.Option, 0, len(s.genOpts)+2)
	opts = append(opts, s.genOpts...)
	opts = append(opts, essay.WithLogger(log), essay.WithObserver(s.metrics.observe))
	g := essay.NewGenerator(s.completer, opts...)

	result, err := g.Generate(r.Context(), p, b)
	s.metrics.record(result, err)
	if err != nil {
		if essay.IsServiceError(err) {
			s.renderError(w, r, http.StatusBadGateway, "An error occurred while generating the SOP. Please try again later.")
			return
		}
		s.renderError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	page := resultPage{
		Text:        result.Text,
		Summary:     renderer.Summary(result),
		Name:        p.Name,
		Institution: p.Institution,
		Program:     p.Program,
		Filename:    renderer.Filename(p.Name, p.Institution, p.Program),
	}
	s.render(w, r, http.StatusOK, "result", page)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDownloadBytes)
	err := r.ParseForm()
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The download request could not be read.")
		return
	}

	text := r.PostForm.Get("text")
	if strings.TrimSpace(text) == "" {
		s.renderError(w, r, http.StatusBadRequest, "There is no essay to download.")
		return
	}

	filename := renderer.Filename(r.PostForm.Get("name"), r.PostForm.Get("institution"), r.PostForm.Get("program"))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// render buffers the named template before writing the status line.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	err := s.templates.ExecuteTemplate(&buf, name, data)
	if err != nil {
		s.logger.Error("template failed", zap.String("request_id", RequestID(r.Context())), zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", errorPage{Message: message, RequestID: RequestID(r.Context())})
}

func newFormPage(p profile.ApplicantProfile, minWords, maxWords string, verr *profile.ValidationError) (page formPage) {
	page = formPage{
		Inputs:   make([]input, 0, len(profile.Fields)),
		MinWords: minWords,
		MaxWords: maxWords,
		FormMin:  profile.FormMinWords,
		FormMax:  profile.FormMaxWords,
		Step:     profile.WordStep,
	}

	for _, f := range profile.Fields {
		in := input{Field: f, Value: p.Value(f.Key)}
		if verr != nil {
			in.Missing = verr.IsMissing(f.Key)
		}
		page.Inputs = append(page.Inputs, in)
	}

	if verr != nil {
		page.Errors = verr.Messages()
	}

	return page
}

// atoiOrZero parses a word count. Unparseable input becomes 0, which fails
// budget validation.
func atoiOrZero(s string) (n int) {
	parsed, err := strconv.Atoi(s)
	if err != nil {
		return n
	}
	n = parsed
	return n
}

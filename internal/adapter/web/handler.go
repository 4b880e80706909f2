package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
	"github.com/eslsoft/yorlect/internal/usecase"
	"github.com/eslsoft/yorlect/pkg/filterexpr"
)

// Handler serves the curation UI and the admin CSV downloads.
type Handler struct {
	controller *usecase.Controller
	reports    usecase.ReportUsecase
	store      repository.ProgressStore
	sessions   *SessionManager
	logger     logrus.FieldLogger
	tmpl       *template.Template
}

func NewHandler(controller *usecase.Controller, reports usecase.ReportUsecase, store repository.ProgressStore, sessions *SessionManager, logger logrus.FieldLogger) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{
		controller: controller,
		reports:    reports,
		store:      store,
		sessions:   sessions,
		logger:     logger,
		tmpl:       tmpl,
	}, nil
}

// Routes returns the router for every page, form post and download.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.page)
	mux.HandleFunc("POST /login", h.action(h.login))
	mux.HandleFunc("POST /next", h.action(h.next))
	mux.HandleFunc("POST /metadata", h.action(h.saveMetadata))
	mux.HandleFunc("POST /translate", h.action(h.submit))
	mux.HandleFunc("POST /skip", h.action(h.skip))
	mux.HandleFunc("POST /admin/login", h.action(h.adminLogin))
	mux.HandleFunc("POST /admin/logout", h.action(h.adminLogout))
	mux.HandleFunc("GET /admin/export/{file}", h.export)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

// page renders the current page. A ?page= selection is applied first and
// redirected so reloading does not repeat it.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	sess, release, err := h.sessions.Acquire(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer release()

	if name := r.URL.Query().Get("page"); name != "" {
		if err := h.controller.Navigate(sess, name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view, err := h.controller.Render(r.Context(), sess, strings.TrimSpace(r.URL.Query().Get("filter")))
	if err != nil {
		h.logger.WithError(err).WithField("page", sess.Page).Warn("page rendered with error")
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", view); err != nil {
		h.fail(w, r, fmt.Errorf("render %s: %w", view.Page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type actionFunc func(r *http.Request, sess *entity.Session) error

// action runs a form post against the caller's session and redirects back to
// the page view. Outcomes reach the user as flash messages.
func (h *Handler) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, release, err := h.sessions.Acquire(w, r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		defer release()

		if err := fn(r, sess); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"path": r.URL.Path,
				"user": sess.Username,
			}).Info("action rejected")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) login(r *http.Request, sess *entity.Session) error {
	return h.controller.Login(sess, r.PostFormValue("username"))
}

func (h *Handler) next(_ *http.Request, sess *entity.Session) error {
	return h.controller.Next(sess)
}

func (h *Handler) saveMetadata(r *http.Request, sess *entity.Session) error {
	md := entity.Metadata{
		Name:    r.PostFormValue("name"),
		Sex:     entity.Sex(r.PostFormValue("sex")),
		Gmail:   r.PostFormValue("gmail"),
		Country: r.PostFormValue("country"),
	}
	// An unparsable age stays 0 and fails range validation.
	md.Age, _ = strconv.Atoi(strings.TrimSpace(r.PostFormValue("age")))
	return h.controller.SaveMetadata(r.Context(), sess, md)
}

func (h *Handler) submit(r *http.Request, sess *entity.Session) error {
	return h.controller.Submit(r.Context(), sess, formPosition(r), r.PostFormValue("translation"))
}

func (h *Handler) skip(r *http.Request, sess *entity.Session) error {
	return h.controller.Skip(r.Context(), sess, formPosition(r))
}

func (h *Handler) adminLogin(r *http.Request, sess *entity.Session) error {
	return h.controller.AdminLogin(sess, r.PostFormValue("password"))
}

func (h *Handler) adminLogout(_ *http.Request, sess *entity.Session) error {
	h.controller.AdminLogout(sess)
	return nil
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	sess, release, err := h.sessions.Acquire(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	err = h.controller.RequireAdmin(sess)
	release()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	kind, err := usecase.ParseExportKind(strings.TrimSuffix(r.PathValue("file"), ".csv"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := h.reports.WriteCSV(r.Context(), &buf, kind, strings.TrimSpace(r.URL.Query().Get("filter"))); err != nil {
		if errors.Is(err, filterexpr.ErrInvalidFilter) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind.FileName()))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WithError(err).Warn("health check failed")
		http.Error(w, "progress store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// formPosition reads the cursor the form was rendered with; a missing or
// malformed value never matches a real cursor.
func formPosition(r *http.Request) int {
	pos, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("position")))
	if err != nil {
		return -1
	}
	return pos
}

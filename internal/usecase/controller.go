package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/pkg/filterexpr"
)

// AboutLines is the body of the About page.
var AboutLines = []string{
	"Contributors log in, provide metadata, and translate 100 unique sentences.",
	"Progress is saved so they can continue anytime.",
	"Admins can log in, monitor contributor progress, and download metadata and translations separately.",
	"Built for collaborative language resource creation.",
}

// MetadataView is the prefilled metadata form.
type MetadataView struct {
	Values entity.Metadata
	Sexes  []entity.Sex
	MinAge int
	MaxAge int
}

// TranslateView is the Translate page for the logged-in contributor.
type TranslateView struct {
	Translated int
	Assigned   int
	Percent    float64
	// Cursor is echoed back by the submit form to detect stale posts.
	Cursor      int
	Number      int
	Sentence    string
	Completed   bool
	Unavailable bool
}

// AdminView is the dashboard, or the password prompt when NeedsLogin is set.
type AdminView struct {
	NeedsLogin  bool
	Filter      string
	FilterError string
	Report      *Report
}

// View is everything a page render needs.
type View struct {
	Page          entity.Page
	Pages         []entity.Page
	Username      string
	LoggedIn      bool
	AdminLoggedIn bool
	Flashes       []entity.Flash
	// Guarded is set when Metadata or Translate is visited while logged out.
	Guarded   bool
	Metadata  *MetadataView
	Translate *TranslateView
	Admin     *AdminView
	About     []string
	// Error halts the current page.
	Error string
}

// Controller is the page state machine. All state lives in the Session
// passed to each call.
type Controller struct {
	progress      ProgressUsecase
	reports       ReportUsecase
	adminPassword string
}

func NewController(progress ProgressUsecase, reports ReportUsecase, adminPassword string) *Controller {
	return &Controller{progress: progress, reports: reports, adminPassword: adminPassword}
}

// Navigate handles a sidebar selection. Refresh discards the session and
// lands on Login.
func (c *Controller) Navigate(sess *entity.Session, name string) error {
	page, ok := entity.ParsePage(name)
	if !ok {
		return fmt.Errorf("%w: %q", entity.ErrUnknownPage, name)
	}
	if page == entity.PageRefresh {
		c.Refresh(sess)
		return nil
	}
	sess.Page = page
	return nil
}

func (c *Controller) Login(sess *entity.Session, username string) error {
	username = entity.NormalizeUsername(username)
	if username == "" {
		sess.AddFlash(entity.FlashError, "Please enter a valid username.")
		return entity.ErrEmptyUsername
	}
	sess.LoggedIn = true
	sess.Username = username
	sess.Page = entity.PageMetadata
	sess.AddFlash(entity.FlashSuccess, fmt.Sprintf("Welcome, %s!", username))
	return nil
}

// Next is the button shown on the Login page once logged in.
func (c *Controller) Next(sess *entity.Session) error {
	if !sess.LoggedIn {
		sess.AddFlash(entity.FlashWarning, "Please login first.")
		return entity.ErrNotLoggedIn
	}
	sess.Page = entity.PageMetadata
	return nil
}

func (c *Controller) SaveMetadata(ctx context.Context, sess *entity.Session, md entity.Metadata) error {
	if !sess.LoggedIn {
		sess.AddFlash(entity.FlashWarning, "Please login first.")
		return entity.ErrNotLoggedIn
	}
	if _, err := c.progress.SaveMetadata(ctx, sess.Username, md); err != nil {
		c.flashError(sess, err)
		return err
	}
	sess.AddFlash(entity.FlashSuccess, "Metadata saved successfully!")
	sess.Page = entity.PageTranslate
	return nil
}

func (c *Controller) Submit(ctx context.Context, sess *entity.Session, position int, text string) error {
	if !sess.LoggedIn {
		sess.AddFlash(entity.FlashWarning, "Please login first.")
		return entity.ErrNotLoggedIn
	}
	sess.Page = entity.PageTranslate
	if _, err := c.progress.Submit(ctx, sess.Username, position, text); err != nil {
		c.flashError(sess, err)
		return err
	}
	sess.AddFlash(entity.FlashSuccess, "Translation submitted! Moving to next sentence...")
	return nil
}

// Skip moves past an assigned sentence that no longer exists in the dataset.
func (c *Controller) Skip(ctx context.Context, sess *entity.Session, position int) error {
	if !sess.LoggedIn {
		sess.AddFlash(entity.FlashWarning, "Please login first.")
		return entity.ErrNotLoggedIn
	}
	sess.Page = entity.PageTranslate
	if _, err := c.progress.Skip(ctx, sess.Username, position); err != nil {
		c.flashError(sess, err)
		return err
	}
	sess.AddFlash(entity.FlashInfo, "Skipped a sentence that is no longer available.")
	return nil
}

func (c *Controller) AdminLogin(sess *entity.Session, password string) error {
	sess.Page = entity.PageAdmin
	if c.adminPassword == "" || subtle.ConstantTimeCompare([]byte(password), []byte(c.adminPassword)) != 1 {
		sess.AdminLoggedIn = false
		sess.AddFlash(entity.FlashError, "Incorrect password.")
		return entity.ErrInvalidAdminPassword
	}
	sess.AdminLoggedIn = true
	sess.AddFlash(entity.FlashSuccess, "Welcome, Admin!")
	return nil
}

func (c *Controller) AdminLogout(sess *entity.Session) {
	sess.AdminLoggedIn = false
	sess.Page = entity.PageAdmin
}

// Refresh clears every piece of session state.
func (c *Controller) Refresh(sess *entity.Session) {
	sess.Reset()
	sess.AddFlash(entity.FlashSuccess, "App refreshed.")
}

// RequireAdmin guards the export endpoints.
func (c *Controller) RequireAdmin(sess *entity.Session) error {
	if sess == nil || !sess.AdminLoggedIn {
		return entity.ErrAdminRequired
	}
	return nil
}

// Render builds the view for the session's current page and consumes its
// flashes. A non-nil error is also reported through View.Error.
func (c *Controller) Render(ctx context.Context, sess *entity.Session, filter string) (*View, error) {
	if sess.Page == "" {
		sess.Page = entity.PageLogin
	}
	view := &View{
		Page:          sess.Page,
		Pages:         entity.Pages,
		Username:      sess.Username,
		LoggedIn:      sess.LoggedIn,
		AdminLoggedIn: sess.AdminLoggedIn,
	}

	var err error
	switch sess.Page {
	case entity.PageLogin:
	case entity.PageMetadata:
		if !sess.LoggedIn {
			view.Guarded = true
			break
		}
		view.Metadata, err = c.metadataView(ctx, sess.Username)
	case entity.PageTranslate:
		if !sess.LoggedIn {
			view.Guarded = true
			break
		}
		view.Translate, err = c.translateView(ctx, sess.Username)
	case entity.PageAdmin:
		view.Admin, err = c.adminView(ctx, sess, filter)
	case entity.PageAbout:
		view.About = AboutLines
	default:
		err = fmt.Errorf("%w: %q", entity.ErrUnknownPage, sess.Page)
	}
	if err != nil {
		view.Error = userMessage(err)
	}
	view.Flashes = sess.TakeFlashes()
	return view, err
}

func (c *Controller) metadataView(ctx context.Context, username string) (*MetadataView, error) {
	md, err := c.progress.GetMetadata(ctx, username)
	if err != nil {
		return nil, err
	}
	if !entity.ValidSex(md.Sex) {
		md.Sex = entity.SexMale
	}
	if md.Age == 0 {
		md.Age = entity.DefaultAge
	}
	return &MetadataView{Values: md, Sexes: entity.Sexes, MinAge: entity.MinAge, MaxAge: entity.MaxAge}, nil
}

func (c *Controller) translateView(ctx context.Context, username string) (*TranslateView, error) {
	state, err := c.progress.OpenTranslate(ctx, username)
	if err != nil {
		return nil, err
	}
	rec := state.Record
	return &TranslateView{
		Translated:  rec.TranslatedCount(),
		Assigned:    state.Total,
		Percent:     rec.Progress(),
		Cursor:      state.Position,
		Number:      state.Position + 1,
		Sentence:    state.Sentence,
		Completed:   state.Completed,
		Unavailable: state.Unavailable,
	}, nil
}

func (c *Controller) adminView(ctx context.Context, sess *entity.Session, filter string) (*AdminView, error) {
	if !sess.AdminLoggedIn {
		return &AdminView{NeedsLogin: true}, nil
	}
	av := &AdminView{Filter: filter}
	report, err := c.reports.Build(ctx, filter)
	if errors.Is(err, filterexpr.ErrInvalidFilter) {
		av.FilterError = err.Error()
		report, err = c.reports.Build(ctx, "")
	}
	if err != nil {
		return nil, err
	}
	av.Report = report
	return av, nil
}

func (c *Controller) flashError(sess *entity.Session, err error) {
	level := entity.FlashError
	switch {
	case errors.Is(err, entity.ErrEmptyTranslation),
		errors.Is(err, entity.ErrInvalidSex),
		errors.Is(err, entity.ErrInvalidAge),
		errors.Is(err, entity.ErrStaleSubmission),
		errors.Is(err, entity.ErrAssignmentComplete),
		errors.Is(err, entity.ErrSentenceAvailable):
		level = entity.FlashWarning
	}
	sess.AddFlash(level, userMessage(err))
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrMissingSentenceColumn):
		return "CSV must contain an 'English' column."
	case errors.Is(err, entity.ErrEmptyTranslation):
		return "Please enter a translation before submitting."
	case errors.Is(err, entity.ErrStaleSubmission):
		return "This sentence was already submitted. Showing the current one."
	case errors.Is(err, entity.ErrAssignmentComplete):
		return "You have completed all your assigned translations! Thank you."
	default:
		return err.Error()
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/yorlect/internal/entity"
)

func newTestController(store *fakeProgressStore, src *fakeSentences) *Controller {
	return NewController(newTestProgressUsecase(store, src), NewReportUsecase(store), "s3cret")
}

func newTestSession() *entity.Session {
	return entity.NewSession("sess-1", time.Unix(0, 0))
}

func lastFlash(t *testing.T, v *View) entity.Flash {
	t.Helper()
	if len(v.Flashes) == 0 {
		t.Fatalf("expected a flash message")
	}
	return v.Flashes[len(v.Flashes)-1]
}

func TestControllerLoginFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestController(newFakeProgressStore(), newFakeSentences(10))
	sess := newTestSession()

	if err := c.Login(sess, "   "); !errors.Is(err, entity.ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if sess.LoggedIn || sess.Page != entity.PageLogin {
		t.Fatalf("empty username must not change state: %+v", sess)
	}
	view, _ := c.Render(ctx, sess, "")
	if f := lastFlash(t, view); f.Level != entity.FlashError {
		t.Fatalf("unexpected flash %+v", f)
	}

	if err := c.Login(sess, "  Ada "); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !sess.LoggedIn || sess.Username != "Ada" || sess.Page != entity.PageMetadata {
		t.Fatalf("unexpected session after login: %+v", sess)
	}

	view, err := c.Render(ctx, sess, "")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if view.Metadata == nil || view.Metadata.Values.Sex != entity.SexMale || view.Metadata.Values.Age != entity.DefaultAge {
		t.Fatalf("expected defaulted metadata form, got %+v", view.Metadata)
	}
	if len(view.Flashes) != 1 || view.Flashes[0].Message != "Welcome, Ada!" {
		t.Fatalf("unexpected flashes %+v", view.Flashes)
	}

	if err := c.Navigate(sess, "login"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	if err := c.Next(sess); err != nil || sess.Page != entity.PageMetadata {
		t.Fatalf("Next should go to Metadata, got %s %v", sess.Page, err)
	}
}

func TestControllerGuardsPages(t *testing.T) {
	ctx := context.Background()
	store := newFakeProgressStore()
	c := newTestController(store, newFakeSentences(10))
	sess := newTestSession()

	for _, page := range []string{"Metadata", "Translate"} {
		if err := c.Navigate(sess, page); err != nil {
			t.Fatalf("Navigate(%s) returned error: %v", page, err)
		}
		view, err := c.Render(ctx, sess, "")
		if err != nil {
			t.Fatalf("Render returned error: %v", err)
		}
		if !view.Guarded || view.Metadata != nil || view.Translate != nil {
			t.Fatalf("expected guarded view for %s, got %+v", page, view)
		}
	}
	if store.snap.Len() != 0 {
		t.Fatalf("guarded pages must not create records")
	}

	if err := c.SaveMetadata(ctx, sess, entity.Metadata{Sex: entity.SexMale, Age: 20}); !errors.Is(err, entity.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := c.Submit(ctx, sess, 0, "text"); !errors.Is(err, entity.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := c.Navigate(sess, "Nowhere"); !errors.Is(err, entity.ErrUnknownPage) {
		t.Fatalf("expected ErrUnknownPage, got %v", err)
	}
}

func TestControllerTranslateJourney(t *testing.T) {
	ctx := context.Background()
	store := newFakeProgressStore()
	c := newTestController(store, newFakeSentences(2))
	sess := newTestSession()

	if err := c.Login(sess, "ada"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := c.SaveMetadata(ctx, sess, entity.Metadata{Name: "Ada", Sex: entity.SexFemale, Age: 30}); err != nil {
		t.Fatalf("SaveMetadata returned error: %v", err)
	}
	if sess.Page != entity.PageTranslate {
		t.Fatalf("expected Translate page, got %s", sess.Page)
	}

	view, err := c.Render(ctx, sess, "")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	tv := view.Translate
	if tv == nil || tv.Assigned != 2 || tv.Number != 1 || tv.Sentence != "sentence 0" || tv.Percent != 0 {
		t.Fatalf("unexpected translate view %+v", tv)
	}

	if err := c.Submit(ctx, sess, tv.Cursor, ""); !errors.Is(err, entity.ErrEmptyTranslation) {
		t.Fatalf("expected ErrEmptyTranslation, got %v", err)
	}
	view, _ = c.Render(ctx, sess, "")
	if f := lastFlash(t, view); f.Level != entity.FlashWarning {
		t.Fatalf("expected warning, got %+v", f)
	}

	for cursor := 0; cursor < 2; cursor++ {
		if err := c.Submit(ctx, sess, cursor, "translated"); err != nil {
			t.Fatalf("Submit(%d) returned error: %v", cursor, err)
		}
	}
	view, _ = c.Render(ctx, sess, "")
	if !view.Translate.Completed || view.Translate.Percent != 100 {
		t.Fatalf("expected completion, got %+v", view.Translate)
	}
}

func TestControllerSentenceSourceFailure(t *testing.T) {
	src := newFakeSentences(0)
	src.err = entity.ErrMissingSentenceColumn
	c := newTestController(newFakeProgressStore(), src)
	sess := newTestSession()
	_ = c.Login(sess, "ada")
	_ = c.Navigate(sess, "Translate")

	view, err := c.Render(context.Background(), sess, "")
	if !errors.Is(err, entity.ErrMissingSentenceColumn) {
		t.Fatalf("expected ErrMissingSentenceColumn, got %v", err)
	}
	if view.Error != "CSV must contain an 'English' column." || view.Translate != nil {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestControllerAdmin(t *testing.T) {
	ctx := context.Background()
	c := newTestController(reportFixture(), newFakeSentences(10))
	sess := newTestSession()

	_ = c.Navigate(sess, "Admin")
	view, err := c.Render(ctx, sess, "")
	if err != nil || view.Admin == nil || !view.Admin.NeedsLogin {
		t.Fatalf("expected password prompt, got %+v %v", view.Admin, err)
	}
	if err := c.RequireAdmin(sess); !errors.Is(err, entity.ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}

	if err := c.AdminLogin(sess, "s3cret "); !errors.Is(err, entity.ErrInvalidAdminPassword) {
		t.Fatalf("expected ErrInvalidAdminPassword, got %v", err)
	}
	if sess.AdminLoggedIn {
		t.Fatalf("failed admin login must stay logged out")
	}

	if err := c.AdminLogin(sess, "s3cret"); err != nil {
		t.Fatalf("AdminLogin returned error: %v", err)
	}
	view, err = c.Render(ctx, sess, `country == "Ghana"`)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if view.Admin.NeedsLogin || len(view.Admin.Report.Progress) != 1 {
		t.Fatalf("unexpected admin view %+v", view.Admin)
	}

	view, err = c.Render(ctx, sess, `country ==`)
	if err != nil {
		t.Fatalf("bad filter should not fail the page: %v", err)
	}
	if view.Admin.FilterError == "" || len(view.Admin.Report.Progress) != 3 {
		t.Fatalf("expected filter error and unfiltered report, got %+v", view.Admin)
	}

	c.AdminLogout(sess)
	if sess.AdminLoggedIn {
		t.Fatalf("AdminLogout should clear admin state")
	}
}

func TestControllerRefreshClearsSession(t *testing.T) {
	c := newTestController(newFakeProgressStore(), newFakeSentences(10))
	sess := newTestSession()
	_ = c.Login(sess, "ada")
	_ = c.AdminLogin(sess, "s3cret")

	if err := c.Navigate(sess, "Refresh"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	if sess.LoggedIn || sess.AdminLoggedIn || sess.Username != "" || sess.Page != entity.PageLogin {
		t.Fatalf("refresh left state behind: %+v", sess)
	}
	if sess.ID != "sess-1" {
		t.Fatalf("refresh should keep the session id")
	}
	view, _ := c.Render(context.Background(), sess, "")
	if len(view.Flashes) != 1 || view.Flashes[0].Message != "App refreshed." {
		t.Fatalf("unexpected flashes %+v", view.Flashes)
	}
}

func TestControllerAbout(t *testing.T) {
	c := newTestController(newFakeProgressStore(), newFakeSentences(1))
	sess := newTestSession()
	_ = c.Navigate(sess, "About")
	view, err := c.Render(context.Background(), sess, "")
	if err != nil || len(view.About) == 0 {
		t.Fatalf("expected About text, got %+v %v", view, err)
	}
}

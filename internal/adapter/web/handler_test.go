package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "github.com/eslsoft/yorlect/internal/adapter/repository"
	"github.com/eslsoft/yorlect/internal/usecase"
)

type testApp struct {
	server    *httptest.Server
	client    *http.Client
	storePath string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sentences.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("English\nHello\nGood morning\nThank you\n"), 0o644))
	storePath := filepath.Join(dir, "user_progress.json")

	store := adapterrepo.NewJSONFileStore(storePath)
	sentences := adapterrepo.NewCSVSentenceSource(csvPath, "English")
	reports := usecase.NewReportUsecase(store)
	controller := usecase.NewController(usecase.NewProgressUsecase(store, sentences, 100), reports, "s3cret")

	sessions, err := NewSessionManager(SessionOptions{Secret: "test-secret"})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h, err := NewHandler(controller, reports, store, sessions, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{server: srv, client: &http.Client{Jar: jar}, storePath: storePath}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHandlerContributorJourney(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Enter your username")

	body = app.post(t, "/login", url.Values{"username": {"   "}})
	assert.Contains(t, body, "Please enter a valid username.")

	body = app.post(t, "/login", url.Values{"username": {" ada "}})
	assert.Contains(t, body, "Welcome, ada!")
	assert.Contains(t, body, `action="/metadata"`)
	assert.Contains(t, body, `value="18"`)

	body = app.post(t, "/metadata", url.Values{"name": {"Ada"}, "sex": {"Female"}, "age": {"200"}})
	assert.Contains(t, body, "age must be between 10 and 120")

	body = app.post(t, "/metadata", url.Values{"name": {"Ada"}, "sex": {"Female"}, "age": {"30"}, "country": {"Nigeria"}})
	assert.Contains(t, body, "Metadata saved successfully!")
	assert.Contains(t, body, "Sentence 1/3:</strong> Hello")
	assert.Contains(t, body, "Progress: 0/3 sentences translated (0.0%)")

	body = app.post(t, "/translate", url.Values{"position": {"0"}, "translation": {"Bawo"}})
	assert.Contains(t, body, "Translation submitted!")
	assert.Contains(t, body, "Sentence 2/3:</strong> Good morning")

	body = app.post(t, "/translate", url.Values{"position": {"0"}, "translation": {"Ignored"}})
	assert.Contains(t, body, "This sentence was already submitted.")

	data, err := os.ReadFile(app.storePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Translation": "Bawo"`)
	assert.NotContains(t, string(data), "Ignored")
	assert.Contains(t, string(data), `"country": "Nigeria"`)
}

func TestHandlerGuardsAndRefresh(t *testing.T) {
	app := newTestApp(t)

	_, body := app.get(t, "/?page=Translate")
	assert.Contains(t, body, "Please login first.")
	_, err := os.Stat(app.storePath)
	assert.True(t, os.IsNotExist(err), "guarded page must not write the store")

	app.post(t, "/login", url.Values{"username": {"ada"}})
	_, body = app.get(t, "/?page=Login")
	assert.Contains(t, body, "Logged in as ada")

	_, body = app.get(t, "/?page=Refresh")
	assert.Contains(t, body, "App refreshed.")
	assert.Contains(t, body, "Enter your username")

	resp, _ := app.get(t, "/?page=Elsewhere")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerAdminExports(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/login", url.Values{"username": {"ada"}})
	app.get(t, "/?page=Translate")
	app.post(t, "/translate", url.Values{"position": {"0"}, "translation": {"Bawo"}})

	resp, _ := app.get(t, "/admin/export/translations.csv")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := app.post(t, "/admin/login", url.Values{"password": {"wrong"}})
	assert.Contains(t, body, "Incorrect password.")
	assert.Contains(t, body, "Enter Admin Password")

	body = app.post(t, "/admin/login", url.Values{"password": {"s3cret"}})
	assert.Contains(t, body, "Welcome, Admin!")
	assert.Contains(t, body, "User Progress Overview")

	resp, csvBody := app.get(t, "/admin/export/translations.csv")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "user_translations.csv")
	lines := strings.Split(strings.TrimSpace(csvBody), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "User,Index,English,Translation,Timestamp", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ada,0,Hello,Bawo,"))

	resp, csvBody = app.get(t, "/admin/export/metadata.csv")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, csvBody, "User,Name,Sex,Age,Gmail,Country")

	resp, _ = app.get(t, "/admin/export/progress.csv?filter="+url.QueryEscape("country =="))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = app.get(t, "/admin/export/users.csv")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	app.post(t, "/admin/logout", nil)
	resp, _ = app.get(t, "/admin/export/metadata.csv")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerHealthz(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

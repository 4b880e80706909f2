package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/yorlect/internal/adapter/repository"
	"github.com/eslsoft/yorlect/internal/adapter/web"
	"github.com/eslsoft/yorlect/internal/infrastructure/config"
	"github.com/eslsoft/yorlect/internal/infrastructure/database"
	"github.com/eslsoft/yorlect/internal/repository"
	"github.com/eslsoft/yorlect/internal/usecase"
)

// ProvideProgressStore opens the store selected by store.driver. SQL drivers
// are migrated before use.
func ProvideProgressStore(cfg *config.Config, logger *logrus.Logger) (repository.ProgressStore, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, err
	}
	if driver == "json" {
		logger.WithField("path", cfg.Store.Path).Info("using json progress store")
		return adapterrepo.NewJSONFileStore(cfg.Store.Path), func() {}, nil
	}

	db, cleanup, err := database.NewConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(context.Background(), db, driver); err != nil {
		cleanup()
		return nil, nil, err
	}
	store, err := adapterrepo.NewSQLStore(db, driver)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.WithField("driver", driver).Info("using sql progress store")
	return store, cleanup, nil
}

func ProvideSentenceSource(cfg *config.Config) repository.SentenceSource {
	return adapterrepo.NewCSVSentenceSource(
		cfg.Sentences.URL,
		cfg.Sentences.Column,
		adapterrepo.WithCacheTTL(cfg.Sentences.CacheTTL),
		adapterrepo.WithHTTPClient(&http.Client{Timeout: cfg.Sentences.Timeout}),
	)
}

func ProvideProgressUsecase(store repository.ProgressStore, sentences repository.SentenceSource, cfg *config.Config) usecase.ProgressUsecase {
	return usecase.NewProgressUsecase(store, sentences, cfg.Assignment.BatchSize)
}

func ProvideController(progress usecase.ProgressUsecase, reports usecase.ReportUsecase, cfg *config.Config, logger *logrus.Logger) *usecase.Controller {
	if cfg.Admin.Password == "" {
		logger.Warn("admin.password is empty; the admin dashboard is locked")
	}
	return usecase.NewController(progress, reports, cfg.Admin.Password)
}

func ProvideSessionManager(cfg *config.Config, logger *logrus.Logger) (*web.SessionManager, error) {
	if cfg.Session.Secret == "" {
		logger.Warn("session.secret is empty; sessions will not survive a restart")
	}
	m, err := web.NewSessionManager(web.SessionOptions{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	return m, nil
}

func ProvideHTTPHandler(h *web.Handler) http.Handler {
	return h.Routes()
}

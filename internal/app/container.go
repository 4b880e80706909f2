package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/yorlect/internal/infrastructure/config"
	"github.com/eslsoft/yorlect/internal/infrastructure/server"
	"github.com/eslsoft/yorlect/internal/repository"
	"github.com/eslsoft/yorlect/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Store   repository.ProgressStore
	Reports usecase.ReportUsecase
	Server  *server.Server
}

// Reporting is the subset of the container used by offline CLI commands.
type Reporting struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Store   repository.ProgressStore
	Reports usecase.ReportUsecase
}

//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/yorlect/internal/adapter/web"
	"github.com/eslsoft/yorlect/internal/infrastructure/config"
	"github.com/eslsoft/yorlect/internal/infrastructure/server"
	"github.com/eslsoft/yorlect/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var repositorySet = wire.NewSet(
	ProvideProgressStore,
	ProvideSentenceSource,
)

var usecaseSet = wire.NewSet(
	ProvideProgressUsecase,
	usecase.NewReportUsecase,
	ProvideController,
)

var webSet = wire.NewSet(
	ProvideSessionManager,
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
	web.NewHandler,
	ProvideHTTPHandler,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		repositorySet,
		usecaseSet,
		webSet,
		serverSet,
		wire.Struct(new(Container), "Config", "Logger", "Store", "Reports", "Server"),
	)
	return nil, nil, nil
}

// InitializeReporting builds only the store side of the container for CLI
// commands that never serve HTTP.
func InitializeReporting() (*Reporting, func(), error) {
	wire.Build(
		configSet,
		server.NewLogger,
		ProvideProgressStore,
		usecase.NewReportUsecase,
		wire.Struct(new(Reporting), "Config", "Logger", "Store", "Reports"),
	)
	return nil, nil, nil
}

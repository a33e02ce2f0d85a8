//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"gerritwatch/internal"
	"gerritwatch/internal/archive"
	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/controllers"
	"gerritwatch/internal/gerrit"
	"gerritwatch/internal/notify"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/services"
	"gerritwatch/internal/structures"
)

var storeSet = wire.NewSet(
	archive.NewCompressor,
	archive.NewSnapshotStore,
	archive.NewLogStore,
	archive.NewReaper,
	wire.Bind(new(interfaces.SnapshotStoreInterface), new(*archive.SnapshotStore)),
	wire.Bind(new(interfaces.LogStoreInterface), new(*archive.LogStore)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewMetricsProvider,

		storeSet,
		gerrit.NewClient,
		wire.Bind(new(services.FetcherInterface), new(*gerrit.Client)),
		notify.NewNotifier,
		services.NewDeltaService,
		services.NewCycleService,
		archive.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

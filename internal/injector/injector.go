//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/sensekit/sensekit/internal/core/observability/log"
	"github.com/sensekit/sensekit/internal/core/perception"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(log.LevelInfo)
}

func ProvideEngine(cfg *perception.Config) (*perception.Engine, error) {
	wire.Build(perception.NewEngine)
	return nil, nil
}

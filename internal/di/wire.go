//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
)

// InitializeApplication builds the full dependency graph. Regenerate
// wire_gen.go with `wire ./internal/di` after changing provider sets.
func InitializeApplication() (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}

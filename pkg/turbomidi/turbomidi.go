// Package turbomidi is the single-import surface for embedders: it
// re-exports the domain types and wires an engine to a port.
package turbomidi

import (
	"elektron/turbomidi-go/pkg/engine"
	"elektron/turbomidi-go/pkg/internal/logger"
	"elektron/turbomidi-go/pkg/port"
	"elektron/turbomidi-go/pkg/types"
)

// Re-export for convenience
type (
	Engine       = engine.Engine
	Config       = engine.Config
	Listener     = engine.Listener
	Port         = port.Port
	Multiplier   = types.Multiplier
	Role         = types.Role
	Capabilities = types.Capabilities
)

const (
	Speed1x    = types.Speed1x
	Speed2x    = types.Speed2x
	Speed3_3x  = types.Speed3_3x
	Speed4x    = types.Speed4x
	Speed5x    = types.Speed5x
	Speed6_6x  = types.Speed6_6x
	Speed8x    = types.Speed8x
	Speed10x   = types.Speed10x
	Speed13_3x = types.Speed13_3x
	Speed16x   = types.Speed16x
	Speed20x   = types.Speed20x

	RoleMaster    = types.RoleMaster
	RoleResponder = types.RoleResponder
	RoleAny       = types.RoleAny
)

// DefaultConfig returns the standard protocol timings
func DefaultConfig() Config {
	return engine.DefaultConfig()
}

// NewMaster creates an engine that initiates negotiations
func NewMaster(p Port, config Config, log Logger) *Engine {
	return engine.New(p, types.RoleMaster, config, log)
}

// NewResponder creates an engine that answers a remote master
func NewResponder(p Port, config Config, log Logger) *Engine {
	return engine.New(p, types.RoleResponder, config, log)
}

// NewAny creates an engine that accepts both code paths
func NewAny(p Port, config Config, log Logger) *Engine {
	return engine.New(p, types.RoleAny, config, log)
}

// Logger is the logging interface the engine consumes
type Logger = logger.Logger

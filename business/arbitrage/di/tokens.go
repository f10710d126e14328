// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Detector = di.NewToken[*app.Detector]("arbitrage.Detector")
)

// Private dependency tokens - internal to arbitrage module
var (
	Reporter = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

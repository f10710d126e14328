// Package di contains dependency injection tokens for the flashloan context.
package di

import (
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/app"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	FlashLoanService = di.NewToken[*app.FlashLoanService]("flashloan.FlashLoanService")
)

// Private dependency tokens - internal to flashloan module
var (
	Builder   = di.NewToken[*app.Builder]("flashloan:builder")
	Submitter = di.NewToken[app.Submitter]("flashloan:submitter")
)

// Helper functions for type-safe access
func GetFlashLoanService(c di.ServiceRegistry) *app.FlashLoanService {
	return di.GetToken(c, FlashLoanService)
}

func GetBuilder(c di.ServiceRegistry) *app.Builder {
	return di.GetToken(c, Builder)
}

func GetSubmitter(c di.ServiceRegistry) app.Submitter {
	return di.GetToken(c, Submitter)
}

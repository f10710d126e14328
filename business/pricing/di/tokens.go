// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/flashloan-arbitrage/business/pricing/app"
	"github.com/fd1az/flashloan-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("pricing.QuoteService")
)

// Private dependency tokens - internal to pricing module
var (
	QuoteProvider = di.NewToken[app.QuoteProvider]("pricing:quoteProvider")
)

// Helper functions for type-safe access
func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetQuoteProvider(c di.ServiceRegistry) app.QuoteProvider {
	return di.GetToken(c, QuoteProvider)
}

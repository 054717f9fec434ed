package marketdata

import (
	"context"

	"chartpulse/internal/domain"
)

// CandleSource supplies recent candles for a token, oldest first.
// An empty result is a valid no-op refresh; implementations must be safe
// for concurrent use because sessions tick in parallel.
type CandleSource interface {
	FetchCandles(ctx context.Context, tokenMint string) ([]domain.Candle, error)
}

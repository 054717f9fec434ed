package stub

import (
	"context"
	"sync"

	"chartpulse/internal/domain"
)

// CandleSource implements marketdata.CandleSource for testing and replay.
// Each call pops the next scripted batch for the mint; once the script is
// exhausted it keeps returning the final batch (or the configured error).
type CandleSource struct {
	mu      sync.Mutex
	batches map[string][][]domain.Candle
	cursor  map[string]int
	Err     error // returned by every fetch when set
}

// NewCandleSource creates an empty scripted source.
func NewCandleSource() *CandleSource {
	return &CandleSource{
		batches: make(map[string][][]domain.Candle),
		cursor:  make(map[string]int),
	}
}

// AddBatch appends one scripted fetch result for the mint.
func (s *CandleSource) AddBatch(tokenMint string, candles []domain.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[tokenMint] = append(s.batches[tokenMint], candles)
}

// FetchCandles returns the next scripted batch for the mint.
func (s *CandleSource) FetchCandles(_ context.Context, tokenMint string) ([]domain.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	batches := s.batches[tokenMint]
	if len(batches) == 0 {
		return nil, nil
	}

	i := s.cursor[tokenMint]
	if i >= len(batches) {
		i = len(batches) - 1
	} else {
		s.cursor[tokenMint] = i + 1
	}
	return batches[i], nil
}

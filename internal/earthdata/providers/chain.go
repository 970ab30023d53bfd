package providers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

// FallbackChain tries an ordered list of moisture sources and returns
// the first non-empty series. A tier returning ErrNoData, or any other
// error (exhausted retries, unreachable host), sends the chain to the
// next tier; nothing propagates to the caller. The last tier is the
// seasonal estimator, which cannot fail, so moisture consumers always
// get some series, tagged by quality so they can tell how much it is
// worth.
type FallbackChain struct {
	sources []earthdata.MoistureSource
	logger  *zap.Logger
}

func NewFallbackChain(logger *zap.Logger, sources ...earthdata.MoistureSource) *FallbackChain {
	return &FallbackChain{sources: sources, logger: logger}
}

func (c *FallbackChain) Fetch(ctx context.Context, req earthdata.FetchRequest) []earthdata.TimeSeriesPoint {
	for _, src := range c.sources {
		series, err := src.Fetch(ctx, req)
		switch {
		case err == nil && len(series) > 0:
			c.logger.Info("moisture tier produced series",
				zap.String("source", src.Name()),
				zap.String("key", req.Key()),
				zap.Int("points", len(series)))
			return series
		case errors.Is(err, earthdata.ErrNoData) || (err == nil && len(series) == 0):
			c.logger.Info("moisture tier has no data, trying next",
				zap.String("source", src.Name()),
				zap.String("key", req.Key()))
		default:
			c.logger.Warn("moisture tier failed, trying next",
				zap.String("source", src.Name()),
				zap.String("key", req.Key()),
				zap.Error(err))
		}
	}

	c.logger.Error("all moisture tiers exhausted", zap.String("key", req.Key()))
	return nil
}

package earthdata

import (
	"context"
	"time"
)

// MoistureSource is one tier of the soil-moisture fallback chain
// (catalog search, modeled reanalysis, seasonal estimate). Fetch returns
// ErrNoData when the tier completed but found nothing for the request.
type MoistureSource interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) ([]TimeSeriesPoint, error)
}

// MoistureFetcher produces a soil-moisture series for a request. The
// chain implementation never fails: its final tier is synthetic.
type MoistureFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) []TimeSeriesPoint
}

// VegetationFetcher drives the asynchronous area-extraction workflow.
// Unlike the moisture path it surfaces failures, since vegetation
// consumers must be able to tell "no data" from "could not determine".
type VegetationFetcher interface {
	SubmitTask(ctx context.Context, area AreaOfInterest, start, end time.Time) (string, error)
	AwaitAndDownload(ctx context.Context, taskID string) ([]VegetationObservation, error)
}

// SeriesStore is the contract the durable local cache must satisfy.
// Get reports absence via the bool, not an error; Put replaces the
// entry under the key wholesale.
type SeriesStore interface {
	Get(key string) ([]TimeSeriesPoint, bool, error)
	Put(key string, series []TimeSeriesPoint) error
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

const (
	powerParameter = "GWETROOT"
	powerFillValue = -999.0
)

// PowerProvider is the secondary soil-moisture tier: the NASA POWER
// daily point API, which needs no credential. It reports root-zone
// wetness (a 0-1 modeled proxy), which is scaled into volumetric
// moisture by a configured factor. The factor is inherited from the
// original system and unverified; it stays configuration.
type PowerProvider struct {
	name         string
	baseURL      string
	wetnessScale float64
	client       *ResilientClient
}

func NewPowerProvider(baseURL string, wetnessScale float64, client *ResilientClient) *PowerProvider {
	return &PowerProvider{
		name:         "power",
		baseURL:      baseURL,
		wetnessScale: wetnessScale,
		client:       client,
	}
}

func (p *PowerProvider) Name() string { return p.name }

func (p *PowerProvider) Fetch(ctx context.Context, req earthdata.FetchRequest) ([]earthdata.TimeSeriesPoint, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", powerParameter)
		values.Set("community", "AG")
		values.Set("latitude", fmt.Sprintf("%.4f", req.Lat))
		values.Set("longitude", fmt.Sprintf("%.4f", req.Lon))
		values.Set("start", req.Start.UTC().Format("20060102"))
		values.Set("end", req.End.UTC().Format("20060102"))
		values.Set("format", "JSON")

		u := fmt.Sprintf("%s/api/temporal/daily/point?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode POWER response: %w", err)
	}

	daily := payload.Properties.Parameter[powerParameter]
	points := make([]earthdata.TimeSeriesPoint, 0, len(daily))
	for dateStr, wetness := range daily {
		if wetness <= powerFillValue {
			continue
		}
		day, err := time.Parse("20060102", dateStr)
		if err != nil {
			p.client.logger.Warn("skipping POWER entry with unparseable date",
				zap.String("date", dateStr))
			continue
		}

		points = append(points, earthdata.TimeSeriesPoint{
			Date:     earthdata.DayUTC(day),
			Value:    earthdata.ClampValue(wetness*p.wetnessScale, 0, 1),
			Quality:  earthdata.QualityModeled,
			SourceID: "power:gwetroot",
		})
	}

	if len(points) == 0 {
		return nil, earthdata.ErrNoData
	}
	return earthdata.NormalizeSeries(points), nil
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/advisor"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/config"
)

// Scheduler periodically re-warms the moisture cache for the tracked
// locations so interactive calls mostly hit fresh entries.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	service    *advisor.Service
	locations  []config.TrackedLocation
	interval   time.Duration
	windowDays int
	logger     *zap.Logger
}

// New creates a new Scheduler.
func New(locations []config.TrackedLocation, interval time.Duration, windowDays int, service *advisor.Service, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		service:    service,
		locations:  locations,
		interval:   interval,
		windowDays: windowDays,
		logger:     logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no tracked locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 360
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.logger.Info("running cache refresh job", zap.Int("locations", len(s.locations)))

		end := time.Now().UTC()
		start := end.AddDate(0, 0, -s.windowDays)

		var wg sync.WaitGroup
		for _, loc := range s.locations {
			loc := loc
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				series := s.service.RefreshSoilMoisture(ctx, loc.Lat, loc.Lon, start, end)
				s.logger.Info("refreshed tracked location",
					zap.String("location", loc.Name),
					zap.Int("points", len(series)))
			}()
		}
		wg.Wait()
		s.logger.Info("completed cache refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

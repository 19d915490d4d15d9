package cache

import (
	"time"

	"nimli/internal/adapter/scheduler"
)

// RefreshJobName labels the refresh job in logs and metrics.
const RefreshJobName = "refresh-popular"

// Schedule registers Refresh on s. Runs never overlap.
func (c *PopularCache) Schedule(s *scheduler.Scheduler, spec string) (scheduler.JobID, error) {
	return s.AddJob(spec, c.Refresh, scheduler.JobOptions{
		Name:          RefreshJobName,
		Timeout:       30 * time.Second,
		OverlapPolicy: scheduler.SkipIfRunning,
	})
}

package domainfx

import (
	"go.uber.org/fx"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

// RunScheduler is only invoked by long-running commands.
func RunScheduler(lc fx.Lifecycle, scheduler *domain.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: scheduler.Start,
		OnStop:  scheduler.Stop,
	})
}

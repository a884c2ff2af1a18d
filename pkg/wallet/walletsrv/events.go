package walletsrv

import (
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
)

// LogEvents returns a listener that logs job lifecycle events. It holds no
// business logic.
func LogEvents(logger *logx.Logger) jobx.ListenerFunc {
	return func(ev jobx.Event) {
		entry := logger.WithFields(logx.Fields{
			"job_id":   ev.JobID,
			"job_name": ev.Name,
			"queue":    ev.Queue,
			"attempt":  ev.AttemptsMade,
		})
		switch ev.Kind {
		case jobx.EventActive:
			entry.Debug("wallet/events: job active")
		case jobx.EventProgress:
			entry.WithField("progress", ev.Progress).Debug("wallet/events: job progress")
		case jobx.EventCompleted:
			entry.Info("wallet/events: job completed")
		case jobx.EventStalled:
			entry.Warn("wallet/events: job stalled")
		case jobx.EventRetrying:
			entry.WithField("reason", ev.Reason).Warn("wallet/events: job will retry")
		case jobx.EventFailed:
			entry.WithField("reason", ev.Reason).Error("wallet/events: job failed")
		}
	}
}

package worker

import (
	"go.uber.org/zap"

	"github.com/groovoo/service-desk/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher. Delivery runs
// synchronously inside Publish; there is no background goroutine to stop.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}

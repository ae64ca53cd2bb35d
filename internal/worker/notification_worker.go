package worker

import (
	"github.com/spec-kit/team-service/internal/service"
)

// StartNotificationWorker registers notification handlers for membership
// events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

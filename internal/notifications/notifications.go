// Package notifications provides notifications through dbus
package notifications

import (
	"fmt"

	"github.com/TheCreeper/go-notify"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
)

const appName = "monitorctl"

var show = func(ntf notify.Notification) (uint32, error) {
	return ntf.Show()
}

type Service struct {
	config *config.Config
	hints  map[string]interface{}
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		hints: map[string]interface{}{
			"urgency":           byte(1), // normal
			"synchronous":       appName,
			"x-dunst-stack-tag": appName,
		},
	}
}

func (s *Service) NotifyProfileLoaded(profile *config.Profile) error {
	fields := utils.NewLogrusCustomFields(logrus.Fields{"profile": profile.Name})
	if *s.config.Notifications.Disabled {
		logrus.WithFields(fields.WithLogID(utils.NotificationSkippedLogID)).Debug(
			"notifications are not enabled, not sending")
		return nil
	}

	ntf := notify.NewNotification("Profile '"+profile.Name+"' loaded", "")
	ntf.AppName = appName
	ntf.Timeout = *s.config.Notifications.TimeoutMs
	ntf.Hints = s.hints

	if _, err := show(ntf); err != nil {
		return fmt.Errorf("cant send notification for %s: %w", profile.Name, err)
	}
	return nil
}

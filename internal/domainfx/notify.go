package domainfx

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/notify"
)

const (
	ConfigNotifyAdminEmail   = "notify.admin_email"
	ConfigNotifySmtpHost     = "notify.smtp.host"
	ConfigNotifySmtpPort     = "notify.smtp.port"
	ConfigNotifySmtpUsername = "notify.smtp.username"
	ConfigNotifySmtpPassword = "notify.smtp.password"
	ConfigNotifySmtpFrom     = "notify.smtp.from"
	ConfigNotifySiteName     = "notify.site_name"
	ConfigNotifySiteURL      = "notify.site_url"
)

func MailerConfigProvider(v *viper.Viper) notify.Config {
	return notify.Config{
		Host:     v.GetString(ConfigNotifySmtpHost),
		Port:     v.GetInt(ConfigNotifySmtpPort),
		Username: v.GetString(ConfigNotifySmtpUsername),
		Password: v.GetString(ConfigNotifySmtpPassword),
		From:     v.GetString(ConfigNotifySmtpFrom),
		To:       v.GetString(ConfigNotifyAdminEmail),
		SiteName: v.GetString(ConfigNotifySiteName),
		SiteURL:  v.GetString(ConfigNotifySiteURL),
	}
}

func Notifier(logger *logrus.Logger, config notify.Config) domain.Notifier {
	return notify.NewMailer(logger, config)
}

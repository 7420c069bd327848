// Package notify sends failure notifications to the site administrator.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
)

const bodyTemplate = `Hello,

The scheduled backup for your site %s has failed.

Error message: %s

Please check your backup settings and try running a manual backup.

You can access the backup administration at: %s

Regards,
sitebackup
`

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// administrator address
	To string

	SiteName string
	SiteURL  string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain text mail through an SMTP relay. A mailer without host,
// sender or recipient silently does nothing.
type Mailer struct {
	logger logrus.FieldLogger
	config Config

	send sendFunc
	now  func() time.Time
}

func NewMailer(logger logrus.FieldLogger, config Config) *Mailer {
	if config.Port == 0 {
		config.Port = 25
	}

	return &Mailer{
		logger: logger,
		config: config,
		send:   smtp.SendMail,
		now:    time.Now,
	}
}

func (m *Mailer) Configured() bool {
	return m.config.Host != "" && m.config.From != "" && m.config.To != ""
}

// SendFailure mails a single notification about a failed run. The SMTP
// exchange itself is not cancellable, ctx is only checked before it starts.
func (m *Mailer) SendFailure(ctx context.Context, message string) error {
	logger := appcontext.LoggerFromContext(m.logger, ctx)

	if !m.Configured() {
		logger.Debug("Mailer is not configured, failure notification skipped")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] Backup Failed", m.config.SiteName)
	body := fmt.Sprintf(bodyTemplate, m.config.SiteName, message, m.config.SiteURL)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))

	err := m.send(addr, auth, m.config.From, []string{m.config.To}, m.compose(subject, body))
	if err != nil {
		return errors.Wrap(err, "unable to send failure notification")
	}

	logger.WithField("to", m.config.To).Info("Failure notification sent")

	return nil
}

func (m *Mailer) compose(subject, body string) []byte {
	var msg strings.Builder

	headers := [][2]string{
		{"From", m.config.From},
		{"To", m.config.To},
		{"Subject", subject},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}

	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.Replace(body, "\n", "\r\n", -1))

	return []byte(msg.String())
}

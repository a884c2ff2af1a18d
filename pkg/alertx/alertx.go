// Package alertx raises operator alerts for failures that automatic retry
// cannot repair. Every alert is logged at ERROR with urgent=true and
// alert=<class>, then mailed when a mailer is configured.
package alertx

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx"
)

// Class groups alerts by the action operators must take.
type Class string

const (
	// ClassManualReconciliation: an external financial mutation succeeded but
	// local bookkeeping did not.
	ClassManualReconciliation Class = "manual_reconciliation"
	// ClassCompensationFailed: a compensating call failed, balances diverge.
	ClassCompensationFailed Class = "compensation_failed"
)

// Severity returns the paging severity of c.
func (c Class) Severity() string {
	if c == ClassCompensationFailed {
		return "critical"
	}
	return "high"
}

// Alert describes one incident.
type Alert struct {
	Class   Class
	Summary string
	JobID   string
	JobName string
	Hash    string
	Fields  map[string]any
	Err     error
	At      time.Time
}

// Alerter raises alerts.
type Alerter interface {
	Raise(ctx context.Context, a Alert)
}

// Mailer is the part of notifx.Client used for alert e-mail.
type Mailer interface {
	SendTemplatedEmail(ctx context.Context, templateName string, data any, msg notifx.EmailMessage, opts ...notifx.Option) error
}

const templateName = "alertx.incident"

const incidentTemplate = `Class:    {{.Class}} ({{.Severity}})
Summary:  {{.Summary}}
Job:      {{.JobName}} {{.JobID}}
Hash:     {{.Hash}}
At:       {{.At}}
{{range $k, $v := .Fields}}{{$k}}: {{$v}}
{{end}}
Error:    {{.Error}}
`

// Service logs alerts and optionally mails them.
type Service struct {
	logger *logx.Logger
	mailer Mailer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default logger.
func WithLogger(l *logx.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMailer enables e-mail delivery through a notifx client.
func WithMailer(c *notifx.Client) Option {
	return func(s *Service) {
		if err := c.RegisterTemplate(templateName, incidentTemplate); err != nil {
			logx.WithError(err).Error("alertx: failed to register incident template")
			return
		}
		s.mailer = c
	}
}

// NewService creates an alert service.
func NewService(opts ...Option) *Service {
	s := &Service{logger: logx.GetDefaultLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Raise logs a and mails it. Delivery failures are logged and swallowed.
func (s *Service) Raise(ctx context.Context, a Alert) {
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}

	fields := logx.Fields{
		"urgent":   true,
		"alert":    string(a.Class),
		"severity": a.Class.Severity(),
	}
	for k, v := range a.Fields {
		fields[k] = v
	}
	if a.JobID != "" {
		fields["job_id"] = a.JobID
	}
	if a.JobName != "" {
		fields["job_name"] = a.JobName
	}
	if a.Hash != "" {
		fields["hash"] = a.Hash
	}

	entry := s.logger.WithFields(fields)
	if a.Err != nil {
		entry = entry.WithError(a.Err)
	}
	entry.Errorf("alertx: %s", a.Summary)

	if s.mailer == nil {
		return
	}

	errText := ""
	if a.Err != nil {
		errText = a.Err.Error()
	}
	data := map[string]any{
		"Class":    a.Class,
		"Severity": a.Class.Severity(),
		"Summary":  a.Summary,
		"JobID":    a.JobID,
		"JobName":  a.JobName,
		"Hash":     a.Hash,
		"At":       a.At.Format(time.RFC3339),
		"Fields":   a.Fields,
		"Error":    errText,
	}

	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	subject := fmt.Sprintf("[%s] %s", a.Class.Severity(), a.Summary)
	if err := s.mailer.SendTemplatedEmail(mailCtx, templateName, data,
		notifx.EmailMessage{Subject: subject},
		notifx.WithTag("alert", string(a.Class)),
	); err != nil {
		s.logger.WithError(err).WithField("alert", string(a.Class)).Warn("alertx: failed to deliver alert e-mail")
	}
}

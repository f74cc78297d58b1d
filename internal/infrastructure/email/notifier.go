// Package email sends lifecycle notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/lumenhost/lumen/internal/domain/instance"
	"github.com/lumenhost/lumen/internal/domain/subscription"
	"github.com/lumenhost/lumen/internal/shared/config"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

// SMTPNotifier delivers lifecycle mail to the operations inbox. The portal
// owns customer contact details and customer-facing delivery.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPNotifier(cfg config.SMTPConfig, logger logger.Interface) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return &SMTPNotifier{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
	}
}

// NotifySubscriptionCancelled sends the cancellation notice with the cleanup
// date the customer has until their data is removed.
func (n *SMTPNotifier) NotifySubscriptionCancelled(ctx context.Context, sub *subscription.Subscription) error {
	if !n.enabled() {
		n.logger.Debugw("smtp not configured, skipping cancellation notice", "sid", sub.SID())
		return nil
	}

	cleanupDate := "unscheduled"
	if d := sub.CancellationCleanupDate(); d != nil {
		cleanupDate = d.Format("2006-01-02")
	}

	subject := fmt.Sprintf("Subscription %s cancelled", sub.SID())
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription Cancelled</h2>
			<p>Subscription <strong>%s</strong> (customer %d, plan %s) has been cancelled.</p>
			<p>The linked instance and its data will be removed on <strong>%s</strong>.</p>
			<p>Manage this subscription at <a href="%s">%s</a>.</p>
		</body>
		</html>
	`, sub.SID(), sub.CustomerID(), sub.PlanCode(), cleanupDate, n.cfg.PortalURL, n.cfg.PortalURL)

	plainBody := fmt.Sprintf(`
Subscription Cancelled

Subscription %s (customer %d, plan %s) has been cancelled.
The linked instance and its data will be removed on %s.

Manage this subscription at %s.
	`, sub.SID(), sub.CustomerID(), sub.PlanCode(), cleanupDate, n.cfg.PortalURL)

	return n.send(subject, htmlBody, plainBody)
}

// NotifyInstanceReady sends the instance-ready notice once provisioning
// completed.
func (n *SMTPNotifier) NotifyInstanceReady(ctx context.Context, inst *instance.Instance) error {
	if !n.enabled() {
		n.logger.Debugw("smtp not configured, skipping instance ready notice", "iid", inst.IID())
		return nil
	}

	subject := fmt.Sprintf("Instance %s is ready", inst.IID())
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Instance Ready</h2>
			<p>Instance <strong>%s</strong> (%s) finished provisioning and is now running.</p>
			<p>It is reachable under the subdomain <strong>%s</strong>.</p>
		</body>
		</html>
	`, inst.IID(), inst.Name(), inst.Subdomain())

	plainBody := fmt.Sprintf(`
Instance Ready

Instance %s (%s) finished provisioning and is now running.
It is reachable under the subdomain %s.
	`, inst.IID(), inst.Name(), inst.Subdomain())

	return n.send(subject, htmlBody, plainBody)
}

func (n *SMTPNotifier) enabled() bool {
	return n.cfg.Host != "" && n.cfg.OpsAddress != ""
}

func (n *SMTPNotifier) send(subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	m.SetHeader("To", n.cfg.OpsAddress)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

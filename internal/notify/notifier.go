// Package notify tells the owners of outdated clients which version to upgrade to.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/types"
)

// DefaultSignature closes every message unless configured otherwise.
const DefaultSignature = "Your Team"

var (
	subjectTemplate = template.Must(template.New("subject").Parse(
		`Update Required: Upgrade to Recommended Version {{.RecommendedVersion}}`))

	bodyTemplate = template.Must(template.New("body").Parse(
		`Dear {{.UserName}},

Your current version ({{.ObservedVersion}}) is different from the recommended version ({{.RecommendedVersion}}). Please upgrade to ensure compatibility.

Best regards,
{{.Signature}}`))
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a single message. Implementations make exactly one attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError is a failed delivery to one recipient.
type DeliveryError struct {
	Recipient string
	UserName  string
	Cause     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Recipient, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// Summary reports the outcome of a notification pass.
type Summary struct {
	Sent     []string
	Skipped  int
	Failures []*DeliveryError
}

// Attempted returns the number of delivery attempts made.
func (s Summary) Attempted() int {
	return len(s.Sent) + len(s.Failures)
}

// Options configures a Notifier.
type Options struct {
	Signature string
	// SendTimeout bounds each delivery attempt; zero means no extra bound.
	SendTimeout time.Duration
	Logger      *zerolog.Logger
}

// Notifier renders and dispatches one message per contactable mismatch record.
type Notifier struct {
	transport   Transport
	signature   string
	sendTimeout time.Duration
	log         *zerolog.Logger
}

// New creates a Notifier that delivers through transport.
func New(transport Transport, opts Options) *Notifier {
	if opts.Signature == "" {
		opts.Signature = DefaultSignature
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Notifier{
		transport:   transport,
		signature:   opts.Signature,
		sendTimeout: opts.SendTimeout,
		log:         opts.Logger,
	}
}

// Render builds the message for rec. rec must have an email.
func (n *Notifier) Render(rec types.MismatchRecord) (Message, error) {
	data := struct {
		types.MismatchRecord
		Signature string
	}{rec, n.signature}

	var subject, body bytes.Buffer
	if err := subjectTemplate.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render body: %w", err)
	}

	to := ""
	if rec.Email != nil {
		to = *rec.Email
	}
	return Message{To: to, Subject: subject.String(), Body: body.String()}, nil
}

// Notify sends one message per record with an email. Records without an email are
// skipped. A failed delivery is logged and recorded in the summary; the remaining
// records are still processed.
func (n *Notifier) Notify(ctx context.Context, recs []types.MismatchRecord) Summary {
	var summary Summary
	for _, rec := range recs {
		if !rec.HasEmail() {
			summary.Skipped++
			n.log.Debug().Str("user", rec.UserName).Msg("no email on record, skipping")
			continue
		}

		if err := n.deliver(ctx, rec); err != nil {
			derr := &DeliveryError{Recipient: *rec.Email, UserName: rec.UserName, Cause: err}
			summary.Failures = append(summary.Failures, derr)
			n.log.Warn().Err(err).Str("to", *rec.Email).Str("user", rec.UserName).Msg("failed to send notification")
			continue
		}

		summary.Sent = append(summary.Sent, *rec.Email)
		n.log.Info().Str("to", *rec.Email).Str("user", rec.UserName).Msg("notification sent")
	}
	return summary
}

func (n *Notifier) deliver(ctx context.Context, rec types.MismatchRecord) (err error) {
	msg, err := n.Render(rec)
	if err != nil {
		return err
	}

	if n.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.sendTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return n.transport.Send(ctx, msg)
}

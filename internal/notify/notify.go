// Package notify delivers job alerts. Every type here satisfies core.Notifier
// or core.SourceAlerter.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

// Notifier mirrors core.Notifier so this package does not import core.
type Notifier interface {
	Notify(ctx context.Context, p posting.Posting) error
}

// Subject is the alert subject line for p.
func Subject(p posting.Posting) string {
	return "📢 New Job Alert: " + p.Title
}

// Body is the plain-text alert body for p.
func Body(p posting.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New job found at %s:\n\n%s\n%s\n", p.SourceID, p.Title, p.URL)
	fmt.Fprintf(&b, "Location: %s\nUpdated: %s\n", p.Location, p.PublishedAt.UTC().Format("2006-01-02 15:04 MST"))
	if p.Content != "" {
		b.WriteString("\n")
		b.WriteString(p.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Multi fans a posting out to every notifier. All notifiers are tried; their
// errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, p posting.Posting) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes alerts to the logger only. Used for dry runs and when no channel
// is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, p posting.Posting) error {
	l.logger.Info("job alert",
		"source", p.SourceID,
		"posting_id", p.ID,
		"title", p.Title,
		"url", p.URL,
		"location", p.Location,
	)
	return nil
}

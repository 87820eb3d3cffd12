package services

import (
	"context"

	"github.com/huangang/gymdesk/internal/models"
)

// Pipeline holds the cross-cutting steps every admin mutation runs:
// the connectivity guard before the store, and the audit entry plus change
// event after a successful write.
type Pipeline struct {
	Guard *ConnectivityGuard
	Audit *AuditLogger
	Hub   *SSEHub
}

func (p *Pipeline) begin(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.Guard.Check(ctx)
}

func (p *Pipeline) done(ctx context.Context, sess Session, action string, details models.Details, event ChangeEvent) {
	if p == nil {
		return
	}
	p.Audit.Record(ctx, sess, action, details)
	if event.Entity != "" {
		p.Hub.Publish(event)
	}
}

package platform

import (
	"context"
	"log/slog"
)

// DryRun logs every call and reports success. Used for local development
// without platform credentials.
type DryRun struct {
	logger *slog.Logger
}

func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{logger: logger.With("module", "dry_run_platform")}
}

func (d *DryRun) SendMessage(ctx context.Context, recipientID, text string) error {
	d.logger.InfoContext(ctx, "Would send message", "recipient_id", recipientID, "text", text)

	return nil
}

func (d *DryRun) ReplyToComment(ctx context.Context, commentID, text string) error {
	d.logger.InfoContext(ctx, "Would reply to comment", "comment_id", commentID, "text", text)

	return nil
}

package analytics

import (
	"context"

	webhookx "github.com/frontdeskhq/frontdesk/pkg/webhook"
)

// WebhookBackend forwards events to an HTTP collector.
type WebhookBackend struct {
	client *webhookx.Client
}

var _ Backend = (*WebhookBackend)(nil)

func NewWebhookBackend(client *webhookx.Client) *WebhookBackend {
	return &WebhookBackend{client: client}
}

func (b *WebhookBackend) Deliver(ctx context.Context, ev Event) error {
	return b.client.Post(ctx, ev)
}

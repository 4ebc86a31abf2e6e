package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/pkg/outbox"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

// writeEvent stores ev in the outbox through tx; it is relayed once tx commits.
// Events keyed by the same aggregate keep their order on the broker.
func writeEvent(
	ctx context.Context,
	tx db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	topic string,
	key uuid.UUID,
	ev any,
) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := outboxMsgRepo.
		WithDB(tx).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: ptr.New(key.String()),
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid v7: %w", err)
	}
	return id, nil
}

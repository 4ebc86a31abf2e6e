package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/mq"
	"github.com/tuanvumaihuynh/orderdesk/pkg/outbox"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

// Service publishes outbox messages to the broker. Each batch is locked,
// produced and marked inside one transaction, so several relays can run
// side by side.
type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer
	metrics       *Metrics

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
	metrics *Metrics,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		metrics:       metrics,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
		}
		cancel()
		<-stoppedChan
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			// Drain the backlog without waiting for the next tick.
			for {
				n, err := s.RelayBatch(ctx)
				if err != nil {
					s.logger.ErrorContext(ctx, "relay outbox msgs", slog.Any("error", err))
					break
				}
				if n < int(s.cfg.BatchSize) || s.stopping() {
					break
				}
			}
		}
	}
}

func (s *Service) stopping() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// RelayBatch publishes up to BatchSize pending messages and returns how many
// it handled. Failed messages are marked with their error.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	start := time.Now()
	var relayed int

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		outboxMsgs, err := s.outboxMsgRepo.
			WithDB(tx).
			ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
				//nolint:gosec
				BatchSize: int32(s.cfg.BatchSize),
			})
		if err != nil {
			return fmt.Errorf("outbox msg repository list unprocessed outbox msgs: %w", err)
		}
		if len(outboxMsgs) == 0 {
			return nil
		}

		items := s.produceAll(ctx, outboxMsgs)

		if err := s.outboxMsgRepo.
			WithDB(tx).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			}); err != nil {
			return fmt.Errorf("outbox msg repository bulk update outbox msgs: %w", err)
		}

		relayed = len(outboxMsgs)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("db with tx: %w", err)
	}

	if relayed > 0 {
		s.metrics.observeBatch(time.Since(start))
		s.logger.DebugContext(ctx, "relayed outbox msgs", slog.Int("count", relayed))
	}
	return relayed, nil
}

func (s *Service) produceAll(ctx context.Context, msgs []repository.ListUnprocessedOutboxMsgsResult) []repository.BulkUpdateOutboxMsgsItem {
	var (
		mu    sync.Mutex
		items = make([]repository.BulkUpdateOutboxMsgsItem, 0, len(msgs))
	)

	g := new(errgroup.Group)
	g.SetLimit(max(s.cfg.MaxInflight, 1))

	for _, msg := range msgs {
		g.Go(func() error {
			item := repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}

			msgCtx := outbox.ExtractContextFromHeaders(ctx, msg.Headers)
			err := s.mqProducer.Produce(msgCtx, mq.ProduceMsg{
				Topic:        msg.Topic,
				Headers:      msg.Headers,
				Payload:      msg.Payload,
				PartitionKey: msg.PartitionKey,
			})
			s.metrics.observeMessage(msg.Topic, err)
			if err != nil {
				s.logger.ErrorContext(msgCtx, "produce outbox msg",
					slog.String("outbox_msg_id", msg.ID.String()),
					slog.String("topic", msg.Topic),
					slog.Any("error", err),
				)
				item.Error = ptr.New(err.Error())
			}

			mu.Lock()
			items = append(items, item)
			mu.Unlock()

			// Failures are recorded per message; the batch always completes.
			return nil
		})
	}
	_ = g.Wait()

	return items
}

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/mq"
	"github.com/tuanvumaihuynh/orderdesk/pkg/correlationid"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }
func (fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults  { return nil }
func (d fakeDB) WithTx(_ context.Context, fn func(db.DB) error) error  { return fn(d) }

type fakeOutboxRepo struct {
	mu      sync.Mutex
	pending []repository.ListUnprocessedOutboxMsgsResult
	updated []repository.BulkUpdateOutboxMsgsItem
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(context.Context, repository.CreateOutboxMsgParams) error {
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(_ context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(int(params.BatchSize), len(r.pending))
	batch := r.pending[:n]
	r.pending = r.pending[n:]
	return batch, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(_ context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, params.Items...)
	return nil
}

type fakeProducer struct {
	mu           sync.Mutex
	failTopic    string
	produced     []mq.ProduceMsg
	correlations []string
}

func (p *fakeProducer) Produce(ctx context.Context, msg mq.ProduceMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.Topic == p.failTopic {
		return errors.New("broker unavailable")
	}
	p.produced = append(p.produced, msg)
	id, _ := correlationid.FromContext(ctx)
	p.correlations = append(p.correlations, id)
	return nil
}

func pendingMsg(topic string) repository.ListUnprocessedOutboxMsgsResult {
	return repository.ListUnprocessedOutboxMsgsResult{
		ID:      uuid.New(),
		Topic:   topic,
		Headers: map[string]string{correlationid.Header: "req-" + topic},
		Payload: json.RawMessage(`{}`),
	}
}

func TestRelayBatch(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{
		pendingMsg("order.created"),
		pendingMsg("order.confirmed"),
		pendingMsg("product.created"),
	}}
	producer := &fakeProducer{failTopic: "product.created"}
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewService(config.Relay{BatchSize: 2, MaxInflight: 2}, slog.New(slog.DiscardHandler), fakeDB{}, repo, producer, metrics)

	n, err := svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, repo.updated, 3)
	var failed int
	for _, item := range repo.updated {
		if item.Error != nil {
			failed++
			assert.Contains(t, *item.Error, "broker unavailable")
		}
	}
	assert.Equal(t, 1, failed)

	assert.Len(t, producer.produced, 2)
	assert.ElementsMatch(t, []string{"req-order.created", "req-order.confirmed"}, producer.correlations)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Messages.WithLabelValues("product.created", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Messages.WithLabelValues("order.created", "published")), 0)
}

func TestRunDrainsBacklog(t *testing.T) {
	repo := &fakeOutboxRepo{}
	for range 5 {
		repo.pending = append(repo.pending, pendingMsg("order.created"))
	}
	producer := &fakeProducer{}
	svc := NewService(config.Relay{BatchSize: 2, Interval: 10 * time.Millisecond, MaxInflight: 4}, slog.New(slog.DiscardHandler), fakeDB{}, repo, producer, nil)

	cleanup := svc.Run(context.Background())
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.updated) == 5
	}, time.Second, 5*time.Millisecond)
	cleanup()

	assert.Len(t, producer.produced, 5)
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"adminpanel/internal/pkg/logger"
	"adminpanel/internal/platform/rabbitmq"
	"adminpanel/internal/storage"
)

// AssetCleanupWorker deletes stored pictures queued by the post service.
type AssetCleanupWorker struct {
	conn      *amqp.Connection
	store     storage.Store
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAssetCleanupWorker(conn *amqp.Connection, store storage.Store, queueName string) *AssetCleanupWorker {
	return &AssetCleanupWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *AssetCleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareDurableQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.serve(workerCtx, deliveries)
	}()

	logger.Info("asset cleanup worker started", zap.String("queue", w.queueName))
	return nil
}

func (w *AssetCleanupWorker) serve(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.handle(ctx, d.Body); err != nil {
				logger.Warn("asset cleanup failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *AssetCleanupWorker) handle(ctx context.Context, body []byte) error {
	var msg rabbitmq.AssetCleanupMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode cleanup message failed: %w", err)
	}
	if msg.Ref == "" {
		return errors.New("cleanup message has empty ref")
	}
	if err := w.store.Delete(ctx, msg.Ref); err != nil {
		return fmt.Errorf("delete %s failed: %w", msg.Ref, err)
	}
	logger.Debug("picture removed", zap.String("ref", msg.Ref))
	return nil
}

func (w *AssetCleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

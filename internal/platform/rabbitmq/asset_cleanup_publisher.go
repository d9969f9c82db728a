package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AssetCleanupMessage asks the cleanup worker to remove one stored file.
type AssetCleanupMessage struct {
	Ref string `json:"ref"`
}

type AssetCleanupPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewAssetCleanupPublisher(conn *amqp.Connection, queueName string) *AssetCleanupPublisher {
	return &AssetCleanupPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *AssetCleanupPublisher) Enqueue(ctx context.Context, ref string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareDurableQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(AssetCleanupMessage{Ref: ref})
	if err != nil {
		return fmt.Errorf("marshal cleanup payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish cleanup message failed: %w", err)
	}
	return nil
}

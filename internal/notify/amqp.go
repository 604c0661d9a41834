package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPConfig 描述通知队列。
type AMQPConfig struct {
	URL   string
	Queue string
}

// AMQP 把咨询事件投递到持久化队列，由外部消费者发送邮件或消息。
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

// NewAMQP 连接 broker 并声明队列。
func NewAMQP(cfg AMQPConfig, logger *zap.Logger) (*AMQP, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	logger.Info("connected to rabbitmq", zap.String("queue", q.Name))
	return &AMQP{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

func (a *AMQP) NotifyContact(ctx context.Context, event ContactEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}

	err = a.channel.PublishWithContext(ctx, "", a.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish contact event: %w", err)
	}

	a.logger.Debug("published contact event", zap.Uint("id", event.ID))
	return nil
}

func (a *AMQP) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

func encodeEvent(event ContactEvent) ([]byte, error) {
	body, err := json.Marshal(struct {
		Type  string       `json:"type"`
		Event ContactEvent `json:"event"`
	}{Type: "contact.created", Event: event})
	if err != nil {
		return nil, fmt.Errorf("marshal contact event: %w", err)
	}
	return body, nil
}

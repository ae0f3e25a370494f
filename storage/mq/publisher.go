package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"MediPay/pkg/logger"
	pkgmq "MediPay/pkg/mq"
)

// 发布使用单个复用的 channel，读多写少用读写锁保护

var (
	publisherCh *amqp.Channel
	pubMutex    sync.RWMutex
)

func getPublisherChannel() (*amqp.Channel, error) {
	pubMutex.RLock()
	if publisherCh != nil && !publisherCh.IsClosed() {
		ch := publisherCh
		pubMutex.RUnlock()
		return ch, nil
	}
	pubMutex.RUnlock()

	pubMutex.Lock()
	defer pubMutex.Unlock()

	if publisherCh != nil && !publisherCh.IsClosed() {
		return publisherCh, nil
	}

	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}

	publisherCh = ch

	closeChan := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closeChan

		pubMutex.Lock()
		if publisherCh == ch {
			publisherCh = nil
		}
		pubMutex.Unlock()

		logger.Logger.Warn("Publisher channel closed, will recreate on next publish",
			zap.String("component", "rabbitmq"),
		)
	}()

	logger.Logger.Info("Publisher channel created",
		zap.String("component", "rabbitmq"),
	)

	return publisherCh, nil
}

// PublishMessage 以 JSON 发布持久化消息，messageID 写入 AMQP MessageId 便于消费端去重
func PublishMessage(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
	return publish(ctx, exchange, routingKey, messageID, body, nil)
}

// PublishDelayedMessage 发往 x-delayed-message 交换机，delay 之后才会路由到队列
func PublishDelayedMessage(ctx context.Context, exchange, routingKey, messageID string, delay time.Duration, body interface{}) error {
	return publish(ctx, exchange, routingKey, messageID, body, amqp.Table{
		// 插件按毫秒解析
		"x-delay": delay.Milliseconds(),
	})
}

func publish(ctx context.Context, exchange, routingKey, messageID string, body interface{}, extra amqp.Table) (err error) {
	start := time.Now()
	ctx, span, headers := pkgmq.StartPublish(ctx, exchange, routingKey, extra)
	defer func() { pkgmq.Finish(ctx, span, "publish", exchange, start, err) }()

	ch, err := getPublisherChannel()
	if err != nil {
		return err
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         bodyBytes,
			Headers:      headers,
			MessageId:    messageID,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

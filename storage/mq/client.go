package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"MediPay/config"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

// Binding 交换机到队列的绑定
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
	// Delayed 为 true 时声明 x-delayed-message 交换机，需要 rabbitmq_delayed_message_exchange 插件
	Delayed bool
}

const exchangeDelayedMessage = "x-delayed-message"

func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			connErr = fmt.Errorf("failed to dial rabbitmq: %w", connErr)
		}
	})

	return connErr
}

func Connection() *amqp.Connection {
	return conn
}

// DeclareTopology 幂等声明交换机、持久队列及绑定
func DeclareTopology(bindings ...Binding) error {
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	for _, b := range bindings {
		kind, args := amqp.ExchangeTopic, amqp.Table(nil)
		if b.Delayed {
			kind, args = exchangeDelayedMessage, amqp.Table{"x-delayed-type": amqp.ExchangeTopic}
		}
		if err := ch.ExchangeDeclare(b.Exchange, kind, true, false, false, false, args); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", b.Exchange, err)
		}
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.Queue, err)
		}
	}

	return nil
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil && !publisherCh.IsClosed() {
		_ = publisherCh.Close()
	}
	publisherCh = nil
	pubMutex.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

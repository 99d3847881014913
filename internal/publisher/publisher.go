package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const EventOrdersCreated = "orders.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrdersCreated is the payload written for every committed checkout.
type OrdersCreated struct {
	CheckoutID  string          `json:"checkout_id"`
	BuyerID     string          `json:"buyer_id"`
	Orders      []OrderSummary  `json:"orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type OrderSummary struct {
	OrderID     string          `json:"order_id"`
	SellerID    string          `json:"seller_id"`
	ProductIDs  []string        `json:"product_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

func NewOrdersCreated(checkoutID string, orders []*domain.Order) OrdersCreated {
	ev := OrdersCreated{
		CheckoutID:  checkoutID,
		Orders:      make([]OrderSummary, 0, len(orders)),
		TotalAmount: decimal.Zero,
		CreatedAt:   time.Now().UTC(),
	}
	for _, o := range orders {
		ev.BuyerID = o.BuyerID
		ids := make([]string, 0, len(o.Lines))
		for _, l := range o.Lines {
			ids = append(ids, l.ProductID)
		}
		ev.Orders = append(ev.Orders, OrderSummary{
			OrderID:     o.ID,
			SellerID:    o.SellerID,
			ProductIDs:  ids,
			TotalAmount: o.TotalAmount,
			Currency:    o.Currency,
		})
		ev.TotalAmount = ev.TotalAmount.Add(o.TotalAmount)
	}
	return ev
}

// KafkaPublisher writes checkout events behind a circuit breaker, so a broker
// outage fails fast instead of slowing every checkout down.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, 2*time.Second)
}

func newKafkaPublisher(w messageWriter, timeout time.Duration) *KafkaPublisher {
	settings := gobreaker.Settings{
		Name:        "kafka-orders",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &KafkaPublisher{
		writer:  w,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		timeout: timeout,
	}
}

func (p *KafkaPublisher) PublishOrdersCreated(ctx context.Context, checkoutID string, orders []*domain.Order) error {
	payload, err := json.Marshal(NewOrdersCreated(checkoutID, orders))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(checkoutID), // checkout_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrdersCreated)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(writeCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", EventOrdersCreated, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) PublishOrdersCreated(context.Context, string, []*domain.Order) error {
	return nil
}

func (Noop) Close() error {
	return nil
}

package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the sales service.
const (
	SubjectSaleCompleted = "dukan.sale.completed"
	SubjectStockLow      = "dukan.stock.low"
)

// SaleCompleted is emitted after a sale and its invoice are persisted.
type SaleCompleted struct {
	SaleID        int64     `json:"sale_id"`
	SaleNumber    string    `json:"sale_number"`
	InvoiceNumber string    `json:"invoice_number"`
	FinalTotal    float64   `json:"final_total"`
	NetProfit     float64   `json:"net_profit"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// StockLow is emitted when a sale drops a product to or below its threshold.
type StockLow struct {
	ProductID  int64     `json:"product_id"`
	Name       string    `json:"name"`
	Remaining  int       `json:"remaining"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers domain events to whoever is listening. Publishing is
// best-effort: a failed publish is logged, never surfaced to the caller,
// because the sale is already committed by the time events fire.
type Publisher interface {
	Publish(subject string, event any)
	Close()
}

// NATSPublisher publishes events as JSON messages on NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("dukan-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

func (p *NATSPublisher) Close() {
	p.conn.Drain()
}

// NoopPublisher drops all events. Used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, any) {}
func (NoopPublisher) Close()              {}

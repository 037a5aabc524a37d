package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/variants"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event subjects
const (
	SubjectStockImported   = "product.stock.imported"
	SubjectVariantsUpdated = "product.variants.updated"
)

// conn is the part of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher publishes catalog stock events to NATS. A nil *Publisher is
// valid and publishes nothing, which is how the service runs without NATS_URL.
type Publisher struct {
	conn   conn
	logger *logrus.Entry
}

// ProductStock is one product's resolved stock inside an event
type ProductStock struct {
	ProductID  string             `json:"productId"`
	SKU        string             `json:"sku"`
	Source     variants.Source    `json:"source"`
	Variants   []variants.Variant `json:"variants"`
	TotalStock int                `json:"totalStock"`
}

// StockEvent is the payload of every stock event
type StockEvent struct {
	EventID    string         `json:"eventId"`
	EventType  string         `json:"eventType"`
	TenantID   string         `json:"tenantId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Products   []ProductStock `json:"products"`
}

// NewPublisher connects to the NATS server at url
func NewPublisher(url string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return newPublisher(nc, logger), nil
}

func newPublisher(c conn, logger *logrus.Logger) *Publisher {
	return &Publisher{
		conn:   c,
		logger: logger.WithField("component", "catalog-events"),
	}
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PublishStockImported announces products created or updated by a stock sheet import
func (p *Publisher) PublishStockImported(ctx context.Context, tenantID string, products []*models.Product) error {
	return p.publish(ctx, SubjectStockImported, tenantID, products)
}

// PublishVariantsUpdated announces a size breakdown replaced through the admin API
func (p *Publisher) PublishVariantsUpdated(ctx context.Context, tenantID string, product *models.Product) error {
	return p.publish(ctx, SubjectVariantsUpdated, tenantID, []*models.Product{product})
}

// buildStockEvent resolves every product so consumers never parse raw fields themselves
func buildStockEvent(subject, tenantID string, products []*models.Product) *StockEvent {
	event := &StockEvent{
		EventID:    uuid.New().String(),
		EventType:  subject,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Products:   make([]ProductStock, 0, len(products)),
	}
	for _, product := range products {
		model := product.Resolve()
		event.Products = append(event.Products, ProductStock{
			ProductID:  product.ID.String(),
			SKU:        product.SKU,
			Source:     model.Source,
			Variants:   model.Variants,
			TotalStock: model.TotalStock(nil, product.Quantity),
		})
	}
	return event
}

func (p *Publisher) publish(ctx context.Context, subject, tenantID string, products []*models.Product) error {
	if p == nil || p.conn == nil || len(products) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	event := buildStockEvent(subject, tenantID, products)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"eventType": subject,
			"tenantID":  tenantID,
		}).WithError(err).Error("Failed to publish stock event")
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"eventType": subject,
		"eventID":   event.EventID,
		"tenantID":  tenantID,
		"products":  len(event.Products),
	}).Info("Stock event published successfully")
	return nil
}

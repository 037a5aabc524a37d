package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/variants"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []published
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{subject: subject, data: data})
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }

func TestPublishStockImported(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, quietLogger())

	product := &models.Product{
		ID:    uuid.New(),
		SKU:   "TEE-1",
		Sizes: strPtr(`[{"size":"M","colorStocks":[{"color":"black","stock":3},{"color":"white","stock":0}]}]`),
	}

	require.NoError(t, p.PublishStockImported(context.Background(), "tenant-1", []*models.Product{product}))
	require.Len(t, fc.messages, 1)
	assert.Equal(t, SubjectStockImported, fc.messages[0].subject)

	var event StockEvent
	require.NoError(t, json.Unmarshal(fc.messages[0].data, &event))
	assert.Equal(t, "tenant-1", event.TenantID)
	assert.Equal(t, SubjectStockImported, event.EventType)
	assert.NotEmpty(t, event.EventID)
	require.Len(t, event.Products, 1)
	assert.Equal(t, "TEE-1", event.Products[0].SKU)
	assert.Equal(t, variants.SourceSizes, event.Products[0].Source)
	assert.Equal(t, 3, event.Products[0].TotalStock)
	assert.Equal(t, []variants.Variant{{Size: "M", ColorStocks: []variants.ColorStock{{Color: "black", Stock: 3}}}}, event.Products[0].Variants)

	p.Close()
	assert.True(t, fc.closed)
}

func TestPublishVariantsUpdatedFailure(t *testing.T) {
	fc := &fakeConn{err: errors.New("connection closed")}
	p := newPublisher(fc, quietLogger())

	err := p.PublishVariantsUpdated(context.Background(), "tenant-1", &models.Product{ID: uuid.New(), SKU: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), SubjectVariantsUpdated)
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishStockImported(context.Background(), "tenant-1", []*models.Product{{SKU: "X"}}))
	assert.NotPanics(t, p.Close)
}

func TestPublishSkipsEmptyBatch(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, quietLogger())

	require.NoError(t, p.PublishStockImported(context.Background(), "tenant-1", nil))
	assert.Empty(t, fc.messages)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/smart-ats/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitNotifier_Publish(t *testing.T) {
	ch := &fakeChannel{}
	notifier := newRabbitNotifier(ch, "screening_updates", nil)

	batchID := uuid.New()
	err := notifier.Publish(context.Background(), BatchEvent{
		BatchID:          batchID,
		Status:           models.StatusCompleted,
		ResumeCount:      2,
		SuccessCount:     1,
		BestFilename:     "a.pdf",
		BestMatchPercent: "90",
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "screening_updates", msg.exchange)
	assert.Equal(t, "batch."+batchID.String(), msg.key)
	assert.Equal(t, "application/json", msg.msg.ContentType)

	var event BatchEvent
	require.NoError(t, json.Unmarshal(msg.msg.Body, &event))
	assert.Equal(t, batchID, event.BatchID)
	assert.Equal(t, models.StatusCompleted, event.Status)
	assert.Equal(t, "90", event.BestMatchPercent)
	assert.False(t, event.Timestamp.IsZero())

	require.NoError(t, notifier.Close())
	assert.True(t, ch.closed)
}

func TestRabbitNotifier_PublishError(t *testing.T) {
	notifier := newRabbitNotifier(&fakeChannel{err: errors.New("channel closed")}, "x", nil)

	err := notifier.Publish(context.Background(), BatchEvent{BatchID: uuid.New()})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNopNotifier(t *testing.T) {
	n := NewNopNotifier()
	assert.NoError(t, n.Publish(context.Background(), BatchEvent{}))
	assert.NoError(t, n.Close())
}

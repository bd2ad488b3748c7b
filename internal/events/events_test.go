package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:            7,
		BookingNo:     "BK1",
		UserID:        3,
		RoomID:        12,
		CheckIn:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		BookingStatus: models.BookingStatusPending,
		ArrivalStatus: models.ArrivalStatusNotArrived,
	}
}

func TestNewBookingEvent(t *testing.T) {
	e := NewBookingEvent(TypeBookingCreated, sampleBooking(), ActorUser, 3)

	assert.Equal(t, TypeBookingCreated, e.Type)
	assert.Equal(t, int64(7), e.BookingID)
	assert.Equal(t, "2025-01-05", e.CheckIn)
	assert.Equal(t, "2025-01-10", e.CheckOut)
	assert.Equal(t, models.BookingStatusPending, e.BookingStatus)
	assert.Equal(t, ActorUser, e.Actor)
	assert.False(t, e.OccurredAt.IsZero())
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, *BookingEvent) error { return f.err }
func (f failingPublisher) Close() error                                { return f.err }

func TestMulti(t *testing.T) {
	rec := NewRecorder()
	boom := stderrors.New("broker down")
	m := Multi{failingPublisher{err: boom}, rec, Noop{}}

	err := m.Publish(context.Background(), NewBookingEvent(TypeBookingCancelled, sampleBooking(), ActorOperator, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{TypeBookingCancelled}, rec.Types(), "失败的发布器不影响其余发布器")

	assert.ErrorIs(t, m.Close(), boom)
	assert.NoError(t, Multi{rec, Noop{}}.Close())
}

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	t.Run("默认交换机按队列名路由", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &AMQPPublisher{ch: ch, key: "booking.events"}

		require.NoError(t, p.Publish(context.Background(), NewBookingEvent(TypeBookingCreated, sampleBooking(), ActorUser, 3)))
		require.Len(t, ch.msgs, 1)
		assert.Equal(t, "", ch.exchange)
		assert.Equal(t, "booking.events", ch.key)

		msg := ch.msgs[0]
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
		assert.Equal(t, "application/json", msg.ContentType)

		var got BookingEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, "BK1", got.BookingNo)

		require.NoError(t, p.Close())
		assert.True(t, ch.closed)
	})

	t.Run("主题交换机按事件类型路由", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &AMQPPublisher{ch: ch, exchange: "hotel"}

		require.NoError(t, p.Publish(context.Background(), NewBookingEvent(TypeBookingStatusChanged, sampleBooking(), ActorOperator, 1)))
		assert.Equal(t, "hotel", ch.exchange)
		assert.Equal(t, TypeBookingStatusChanged, ch.key)
	})
}

type fakeMQTT struct {
	topic        string
	payload      interface{}
	disconnected bool
}

func (f *fakeMQTT) Publish(_ context.Context, topic string, payload interface{}) error {
	f.topic, f.payload = topic, payload
	return nil
}

func (f *fakeMQTT) Disconnect() { f.disconnected = true }

func TestMQTTPublisher(t *testing.T) {
	client := &fakeMQTT{}
	p := &MQTTPublisher{client: client, prefix: "hotel/"}

	e := NewBookingEvent(TypeBookingArrivalChanged, sampleBooking(), ActorOperator, 1)
	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, "hotel/bookings/12/status", client.topic)
	assert.Same(t, e, client.payload)

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}

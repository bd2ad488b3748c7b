package mqtt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{"字节", []byte("raw"), "raw"},
		{"字符串", "text", "text"},
		{"结构体", struct {
			BookingID int64  `json:"booking_id"`
			Status    string `json:"status"`
		}{1, "Confirmed"}, `{"booking_id":1,"status":"Confirmed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePayload(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, err := EncodePayload(make(chan int))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "hotel/bookings/booking.created", Topic("hotel/", "/bookings", "booking.created"))
	assert.Equal(t, "a/b", Topic("", "a", "", "b/"))
}

func TestClientID(t *testing.T) {
	id := ClientID("api")
	assert.True(t, strings.HasPrefix(id, "api-"))
	assert.Len(t, id, len("api-")+12)
	assert.NotEqual(t, id, ClientID("api"))
	assert.True(t, strings.HasPrefix(ClientID(""), "hotel-booking-"))
}

func TestClient_PublishWithoutConnect(t *testing.T) {
	c := NewClient(&Config{Broker: "localhost", Port: 1883}, nil)
	assert.False(t, c.IsConnected())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, c.Publish(ctx, "t", "x"))
	assert.NotPanics(t, c.Disconnect)
}

func TestClient_ConnectRefused(t *testing.T) {
	c := NewClient(&Config{Broker: "127.0.0.1", Port: 1, ConnectTimeout: time.Second}, nil)
	assert.Error(t, c.Connect())
}

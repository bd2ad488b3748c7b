// Package sms 短信服务单元测试
package sms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSender_Send(t *testing.T) {
	sender := NewMockSender()
	ctx := context.Background()

	err := sender.Send(ctx, "13800138000", TemplateBookingCreated, map[string]string{
		"booking_no": "BK1",
	})
	require.NoError(t, err)

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "13800138000", msgs[0].Phone)
	assert.Equal(t, TemplateBookingCreated, msgs[0].TemplateKey)
	assert.Equal(t, "BK1", msgs[0].Params["booking_no"])
	assert.NotZero(t, msgs[0].SentAt)

	sender.Clear()
	assert.Empty(t, sender.Messages())
}

func TestMockSender_FailWith(t *testing.T) {
	sender := NewMockSender()
	boom := errors.New("gateway down")

	sender.FailWith(boom)
	assert.ErrorIs(t, sender.Send(context.Background(), "1", TemplateBookingCancelled, nil), boom)
	assert.Empty(t, sender.Messages())

	sender.FailWith(nil)
	assert.NoError(t, sender.Send(context.Background(), "1", TemplateBookingCancelled, nil))
}

func TestMockSender_Concurrent(t *testing.T) {
	sender := NewMockSender()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sender.Send(context.Background(), "13800138000", TemplateBookingConfirmed, nil)
		}()
	}
	wg.Wait()

	assert.Len(t, sender.Messages(), 20)
}

func TestNewAliyunSender(t *testing.T) {
	sender, err := NewAliyunSender(&AliyunConfig{
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		SignName:        "酒店",
		Templates:       map[string]string{TemplateBookingCreated: "SMS_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "酒店", sender.signName)

	t.Run("未配置的模板直接报错", func(t *testing.T) {
		err := sender.Send(context.Background(), "13800138000", TemplateBookingCancelled, nil)
		assert.ErrorContains(t, err, "未配置")
	})
}

var _ Sender = (*AliyunSender)(nil)
var _ Sender = (*MockSender)(nil)

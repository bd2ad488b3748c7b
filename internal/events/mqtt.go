package events

import (
	"context"
	"strconv"

	"github.com/dumeirei/hotel-booking-backend/pkg/mqtt"
)

// mqttClient 发布所需的 MQTT 能力
type mqttClient interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Disconnect()
}

var _ mqttClient = (*mqtt.Client)(nil)

// MQTTPublisher 将事件发布到 {prefix}/bookings/{room_id}/status，供前台与客房终端订阅
type MQTTPublisher struct {
	client mqttClient
	prefix string
}

// NewMQTTPublisher 创建 MQTT 事件发布器，client 需已连接
func NewMQTTPublisher(client *mqtt.Client, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: topicPrefix}
}

// TopicFor 返回事件对应的主题
func (p *MQTTPublisher) TopicFor(event *BookingEvent) string {
	return mqtt.Topic(p.prefix, "bookings", strconv.FormatInt(event.RoomID, 10), "status")
}

// Publish 实现 Publisher
func (p *MQTTPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	return p.client.Publish(ctx, p.TopicFor(event), event)
}

// Close 断开连接
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect()
	return nil
}

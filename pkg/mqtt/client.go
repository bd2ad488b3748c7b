// Package mqtt 提供 MQTT 发布客户端封装
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config MQTT 配置
type Config struct {
	Broker         string
	Port           int
	ClientIDPrefix string
	Username       string
	Password       string
	QoS            byte
	Retained       bool
	KeepAlive      time.Duration
	AutoReconnect  bool
	ConnectTimeout time.Duration
}

// Client MQTT 客户端
type Client struct {
	config *Config
	client paho.Client
	log    *zap.Logger
}

// NewClient 创建 MQTT 客户端
func NewClient(config *Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		config: config,
		log:    log.Named("mqtt"),
	}
}

// ClientID 生成唯一的客户端 ID，多实例部署时互不踢线
func ClientID(prefix string) string {
	if prefix == "" {
		prefix = "hotel-booking"
	}
	return prefix + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func (c *Client) connectTimeout() time.Duration {
	if c.config.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return c.config.ConnectTimeout
}

func (c *Client) options() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.config.Broker, c.config.Port))
	opts.SetClientID(ClientID(c.config.ClientIDPrefix))
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(c.config.KeepAlive)
	opts.SetAutoReconnect(c.config.AutoReconnect)
	opts.SetConnectTimeout(c.connectTimeout())
	opts.SetOnConnectHandler(func(paho.Client) {
		c.log.Info("connected", zap.String("broker", c.config.Broker), zap.Int("port", c.config.Port))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn("connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
		c.log.Info("reconnecting")
	})
	return opts
}

// Connect 连接 MQTT Broker
func (c *Client) Connect() error {
	c.client = paho.NewClient(c.options())

	token := c.client.Connect()
	if !token.WaitTimeout(c.connectTimeout()) {
		return fmt.Errorf("mqtt connect timeout: %s:%d", c.config.Broker, c.config.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect error: %w", err)
	}
	return nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
		c.log.Info("disconnected")
	}
}

// IsConnected 检查是否已连接
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Publish 发布消息，payload 为 []byte、string 或可 JSON 序列化的值
func (c *Client) Publish(ctx context.Context, topic string, payload interface{}) error {
	if c.client == nil {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := EncodePayload(payload)
	if err != nil {
		return err
	}

	token := c.client.Publish(topic, c.config.QoS, c.config.Retained, data)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("mqtt publish error: %w", token.Error())
		}
		return nil
	}
}

// EncodePayload 将消息体编码为字节
func EncodePayload(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mqtt marshal payload error: %w", err)
		}
		return data, nil
	}
}

// Topic 拼接主题，忽略多余的斜杠
func Topic(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}

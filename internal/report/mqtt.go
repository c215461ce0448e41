package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/time/rate"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

const (
	mqttConnectTimeout = 30 * time.Second
	mqttPublishTimeout = 10 * time.Second
)

// publisher is the part of mqtt.Client used by MQTTSink.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// DetectionMessage is the JSON payload published for every detection.
type DetectionMessage struct {
	RunID     string   `json:"run_id"`
	Node      string   `json:"node"`
	Label     string   `json:"label"`
	Time      string   `json:"time"`
	Score     float32  `json:"score"`
	Amplitude float32  `json:"amplitude,omitempty"`
	Archive   int      `json:"archive"`
	Group     int      `json:"group"`
	Traces    []string `json:"traces"`
}

// MQTTSink publishes each detection as a JSON message.
type MQTTSink struct {
	mu     sync.Mutex
	client publisher
	topic  string
	qos    byte
	retain bool
	run    scan.Run

	limiter *rate.Limiter // nil when publishing is unlimited
}

// NewMQTTSink connects to the configured broker.
func NewMQTTSink(s conf.MQTTSettings, run scan.Run) (*MQTTSink, error) {
	if _, err := url.Parse(s.Broker); err != nil {
		return nil, mqttError(fmt.Errorf("invalid broker URL: %w", err), errors.CategoryConfiguration, s.Broker)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Broker)
	opts.SetClientID(s.ClientID)
	opts.SetUsername(s.Username)
	opts.SetPassword(s.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		GetLogger().Warn("connection to MQTT broker lost",
			logger.String("broker", s.Broker),
			logger.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, mqttError(fmt.Errorf("connection timeout"), errors.CategoryMQTTConnection, s.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, mqttError(fmt.Errorf("connection error: %w", err), errors.CategoryMQTTConnection, s.Broker)
	}

	GetLogger().Info("connected to MQTT broker",
		logger.String("broker", s.Broker),
		logger.String("topic", s.Topic))
	return newMQTTSink(client, s, run), nil
}

func newMQTTSink(client publisher, s conf.MQTTSettings, run scan.Run) *MQTTSink {
	m := &MQTTSink{
		client: client,
		topic:  s.Topic,
		qos:    byte(min(max(s.QoS, 0), 2)), //nolint:gosec // G115: clamped to 0..2
		retain: s.Retain,
		run:    run,
	}
	if s.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(s.RateLimit), max(1, int(s.RateLimit)))
	}
	return m
}

func (m *MQTTSink) Write(ctx context.Context, detections []scan.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.client.IsConnected() {
		return mqttError(fmt.Errorf("not connected to MQTT broker"), errors.CategoryMQTTConnection, "")
	}

	for _, d := range detections {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		payload, err := json.Marshal(m.message(d))
		if err != nil {
			return mqttError(err, errors.CategoryMQTTPublish, "")
		}

		token := m.client.Publish(m.topic, m.qos, m.retain, payload)
		if !token.WaitTimeout(mqttPublishTimeout) {
			return mqttError(fmt.Errorf("publish timeout"), errors.CategoryMQTTPublish, "")
		}
		if err := token.Error(); err != nil {
			return mqttError(err, errors.CategoryMQTTPublish, "")
		}
	}
	return nil
}

func (m *MQTTSink) message(d scan.Detection) DetectionMessage {
	return DetectionMessage{
		RunID:     m.run.ID.String(),
		Node:      m.run.Node,
		Label:     string(d.Label),
		Time:      FormatTime(d.Time),
		Score:     d.Score,
		Amplitude: d.Amplitude,
		Archive:   d.Archive,
		Group:     d.Group,
		Traces:    d.Traces,
	}
}

// Close disconnects from the broker.
func (m *MQTTSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}

func mqttError(err error, category errors.ErrorCategory, broker string) error {
	b := errors.New(err).
		Component("report").
		Category(category)
	if broker != "" {
		b = b.Context("broker", broker)
	}
	return b.Build()
}

// Package events publishes refresh completions to Kafka so downstream
// consumers can react to new data without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"countryatlas/configs"
	"countryatlas/internal/service"
)

const writeTimeout = 5 * time.Second

// Publisher writes refresh-completed events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewPublisher builds a Kafka publisher from config. Returns nil when
// no broker is configured; callers treat a nil publisher as disabled.
func NewPublisher(cfg configs.KafkaConfig, logger *logrus.Logger) *Publisher {
	if cfg.Broker == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Broker),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: writer, logger: logger}
}

// PublishRefresh sends one refresh result, keyed by refresh ID.
func (p *Publisher) PublishRefresh(ctx context.Context, result service.RefreshResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serialize refresh event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(result.RefreshID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}

	p.logger.WithField("refresh_id", result.RefreshID).Info("Refresh event published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

package repository

import (
	"context"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	pkgkafka "TrendRadar/pkg/kafka"
)

// KafkaSignalPublisher emits buy signals and predictions to dedicated
// topics so downstream consumers (alerting, backtests) can subscribe.
type KafkaSignalPublisher struct {
	producer    *pkgkafka.Producer
	signalTopic string
	predTopic   string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, signalTopic, predTopic string) repository.SignalPublisher {
	if signalTopic == "" {
		signalTopic = "trendradar.signals"
	}
	if predTopic == "" {
		predTopic = "trendradar.predictions"
	}
	return &KafkaSignalPublisher{producer: producer, signalTopic: signalTopic, predTopic: predTopic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s *models.BuySignal) error {
	return p.producer.Publish(ctx, p.signalTopic, []byte(s.Symbol), s)
}

func (p *KafkaSignalPublisher) PublishPrediction(ctx context.Context, pr *models.Prediction) error {
	return p.producer.Publish(ctx, p.predTopic, []byte(pr.Symbol), pr)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

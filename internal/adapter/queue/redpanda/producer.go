// Package redpanda carries email jobs over Redpanda/Kafka.
//
// The API server publishes one record per email job; the worker consumes
// them in a consumer group and delivers the email.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

const (
	// TopicEmail is the default topic for email jobs.
	TopicEmail = "email-jobs"

	jobTypeEmail = "email"
)

func tracingHooks() kgo.Opt {
	tracer := kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))
	return kgo.WithHooks(kotel.NewKotel(kotel.WithTracer(tracer)).Hooks()...)
}

// Producer publishes email jobs and implements domain.EmailQueue.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to brokers and makes sure topic exists.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if topic == "" {
		topic = TopicEmail
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		tracingHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda producer created", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Producer{client: client, topic: topic}, nil
}

func newEmailRecord(topic string, payload domain.EmailTaskPayload) (*kgo.Record, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &kgo.Record{
		Topic:   topic,
		Key:     []byte(payload.JobID),
		Value:   b,
		Headers: []kgo.RecordHeader{{Key: "job_type", Value: []byte(jobTypeEmail)}},
	}, nil
}

// EnqueueEmail publishes payload and waits for the broker acknowledgement.
func (p *Producer) EnqueueEmail(ctx context.Context, payload domain.EmailTaskPayload) error {
	rec, err := newEmailRecord(p.topic, payload)
	if err != nil {
		return fmt.Errorf("op=redpanda.EnqueueEmail: %w", err)
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		slog.Error("failed to produce email job", slog.String("job_id", payload.JobID), slog.Any("error", err))
		return fmt.Errorf("op=redpanda.EnqueueEmail: %w", err)
	}
	observability.EnqueueJob(jobTypeEmail)
	slog.Info("email job enqueued", slog.String("job_id", payload.JobID), slog.String("topic", p.topic))
	return nil
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error { return p.client.Ping(ctx) }

// Close closes the producer.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

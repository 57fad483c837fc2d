package redpanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// EmailHandler delivers the email of one job.
type EmailHandler interface {
	HandleEmail(ctx context.Context, payload domain.EmailTaskPayload) error
}

// Consumer reads email jobs in a consumer group. Offsets are committed once
// a record has been handled, whether or not delivery succeeded; failed jobs
// stay visible in email_jobs.
type Consumer struct {
	client  *kgo.Client
	handler EmailHandler
	groupID string
	topic   string
}

// NewConsumer joins groupID on topic.
func NewConsumer(brokers []string, groupID, topic string, h EmailHandler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if topic == "" {
		topic = TopicEmail
	}

	admin, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("redpanda admin client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), admin, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", topic), slog.Any("error", err))
	}
	admin.Close()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		tracingHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer: %w", err)
	}
	slog.Info("redpanda consumer created", slog.String("group_id", groupID), slog.String("topic", topic))
	return &Consumer{client: client, handler: h, groupID: groupID, topic: topic}, nil
}

// Start polls until ctx is done. Records are handled one at a time.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting email consumer", slog.String("group_id", c.groupID), slog.String("topic", c.topic))
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("fetch error", slog.String("topic", topic), slog.Int("partition", int(partition)), slog.Any("error", err))
		})
		fetches.EachRecord(func(r *kgo.Record) {
			_ = c.processRecord(ctx, r)
			c.client.MarkCommitRecords(r)
		})
	}
}

func (c *Consumer) processRecord(ctx context.Context, r *kgo.Record) error {
	var payload domain.EmailTaskPayload
	if err := json.Unmarshal(r.Value, &payload); err != nil || payload.JobID == "" {
		if err == nil {
			err = fmt.Errorf("%w: missing job_id", domain.ErrInvalidArgument)
		}
		slog.Error("dropping malformed email job",
			slog.String("topic", r.Topic),
			slog.Int64("offset", r.Offset),
			slog.Any("error", err))
		return err
	}

	observability.StartProcessingJob(jobTypeEmail)
	if err := c.handler.HandleEmail(ctx, payload); err != nil {
		observability.FailJob(jobTypeEmail)
		slog.Error("email job failed",
			slog.String("job_id", payload.JobID),
			slog.String("error_code", classifyFailureCode(err)),
			slog.Any("error", err))
		return err
	}
	observability.CompleteJob(jobTypeEmail)
	return nil
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

package redpanda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// createTopicIfNotExists creates topic through the admin API. An existing
// topic is not an error.
func createTopicIfNotExists(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	if topic == "" {
		return fmt.Errorf("topic name cannot be empty")
	}
	if partitions <= 0 {
		return fmt.Errorf("partitions must be greater than 0")
	}
	if replicationFactor <= 0 {
		return fmt.Errorf("replication factor must be greater than 0")
	}

	req := kmsg.NewCreateTopicsRequest()
	req.TimeoutMillis = 30000
	topicReq := kmsg.NewCreateTopicsRequestTopic()
	topicReq.Topic = topic
	topicReq.NumPartitions = partitions
	topicReq.ReplicationFactor = replicationFactor
	req.Topics = append(req.Topics, topicReq)

	resp, err := req.RequestWith(ctx, client)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	for _, t := range resp.Topics {
		err := kerr.ErrorForCode(t.ErrorCode)
		switch {
		case err == nil:
			slog.Info("topic created",
				slog.String("topic", t.Topic),
				slog.Int("partitions", int(partitions)),
				slog.Int("replication_factor", int(replicationFactor)))
		case errors.Is(err, kerr.TopicAlreadyExists):
			slog.Debug("topic already exists", slog.String("topic", t.Topic))
		default:
			msg := ""
			if t.ErrorMessage != nil {
				msg = *t.ErrorMessage
			}
			return fmt.Errorf("create topic %s: %w (%s)", t.Topic, err, msg)
		}
	}
	return nil
}

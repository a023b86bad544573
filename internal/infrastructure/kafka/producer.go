package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/dto"
	"github.com/yokitheyo/imagelinker/internal/retry"
)

// Producer publishes reoptimize tasks. It implements domain.QueueService.
type Producer struct {
	client *wbfkafka.Producer
	topic  string
}

func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized")
	return &Producer{client: client, topic: cfg.Topic}
}

// PublishReoptimizeTask sends a task keyed by record id, so tasks for one
// record land on the same partition in order.
func (p *Producer) PublishReoptimizeTask(ctx context.Context, recordID string) (string, error) {
	task := dto.ReoptimizeTask{
		TaskID:   uuid.NewString(),
		RecordID: recordID,
	}

	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	if err := p.client.SendWithRetry(ctx, retry.QueueStrategy, []byte(recordID), data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("task_id", task.TaskID).
			Str("record_id", recordID).
			Msg("Failed to send reoptimize task")
		return "", fmt.Errorf("send task to %s: %w", p.topic, err)
	}

	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("record_id", recordID).
		Msg("Reoptimize task queued")
	return task.TaskID, nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed")
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/dto"
	"github.com/yokitheyo/imagelinker/internal/retry"
)

type MessageHandler func(ctx context.Context, task *dto.ReoptimizeTask) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) *Consumer {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized")
	return &Consumer{client: client, handler: handler}
}

// DecodeTask parses a queue message. Malformed messages are returned as
// errors and should be committed so they do not block the partition.
func DecodeTask(value []byte) (*dto.ReoptimizeTask, error) {
	var task dto.ReoptimizeTask
	if err := json.Unmarshal(value, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	if task.RecordID == "" {
		return nil, fmt.Errorf("task %q has no record id", task.TaskID)
	}
	return &task, nil
}

// Start consumes until ctx is cancelled. A message whose handler fails is
// left uncommitted and will be delivered again.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		}

		msg, err := c.client.FetchWithRetry(ctx, retry.QueueStrategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
			time.Sleep(time.Second)
			continue
		}

		taskID := ""
		task, err := DecodeTask(msg.Value)
		if err != nil {
			zlog.Logger.Error().Err(err).Bytes("msg", msg.Value).Msg("Dropping invalid task")
		} else {
			taskID = task.TaskID
			if err := c.handler(ctx, task); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Str("record_id", task.RecordID).
					Msg("Task processing failed")
				continue
			}
		}

		if err := c.client.Commit(ctx, msg); err != nil {
			zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to commit message")
			continue
		}
		zlog.Logger.Debug().Str("task_id", taskID).Msg("Message committed")
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed")
	return nil
}

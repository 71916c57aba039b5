// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"resume-chat-go/internal/config"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/tasks"
)

// maxAttempts 之后提交 offset，放弃该任务。
const maxAttempts = 3

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DocumentParseTask) error
}

// Producer 发送解析任务。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers(cfg)...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
	log.Info("Kafka 生产者初始化成功")
	return p
}

// PublishParseTask 发送一个简历解析任务，以 ResumeID 作为消息 key。
func (p *Producer) PublishParseTask(ctx context.Context, task tasks.DocumentParseTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.ResumeID),
		Value: taskBytes,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是 *kafka.Reader 中被用到的方法子集。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 消费解析任务。失败次数记在 Redis 中，达到阈值后提交 offset 终止重试。
type Consumer struct {
	reader    messageReader
	rdb       redis.Cmdable
	processor TaskProcessor
	topic     string
	backoff   time.Duration // 原地重试之间的等待
}

// NewConsumer 创建消费者。
func NewConsumer(cfg config.KafkaConfig, rdb redis.Cmdable, processor TaskProcessor) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, rdb: rdb, processor: processor, topic: cfg.Topic, backoff: time.Second}
}

// Run 阻塞消费直到 ctx 结束。
func (c *Consumer) Run(ctx context.Context) {
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", c.topic)
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			time.Sleep(time.Second)
			continue
		}
		if c.handle(ctx, m) {
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}
}

// handle 处理一条消息，返回是否应提交 offset。
// 同一会话内 FetchMessage 不会重新投递未提交的消息，所以失败的任务在这里原地重试，
// 累计 maxAttempts 次后放弃。次数记在 Redis 中，进程重启后重新投递的消息会接着计数。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	var task tasks.DocumentParseTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		// 消息格式错误，直接提交，避免阻塞队列
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		return true
	}

	attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.ResumeID)
	log.Infow("开始处理简历解析任务", "resumeId", task.ResumeID, "key", task.StorageKey, "offset", m.Offset)
	var local int64
	for {
		err := c.processor.Process(ctx, task)
		if err == nil {
			log.Infow("简历解析任务处理成功", "resumeId", task.ResumeID)
			_ = c.rdb.Del(ctx, attemptsKey).Err()
			return true
		}
		log.Errorw("处理简历解析任务失败", "resumeId", task.ResumeID, "error", err)
		if ctx.Err() != nil {
			// 停机中断，不提交，重启后重新投递
			return false
		}

		local++
		attempts, incErr := c.rdb.Incr(ctx, attemptsKey).Result()
		if incErr != nil {
			log.Warnw("记录重试次数失败，改用本地计数", "resumeId", task.ResumeID, "error", incErr)
			attempts = local
		} else {
			_ = c.rdb.Expire(ctx, attemptsKey, 24*time.Hour).Err()
		}
		if attempts >= maxAttempts {
			log.Errorw("简历解析任务多次失败，放弃重试", "resumeId", task.ResumeID, "attempts", attempts)
			_ = c.rdb.Del(ctx, attemptsKey).Err()
			return true
		}

		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return false
		}
	}
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

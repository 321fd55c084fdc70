/*
 * @module KafkaConnector
 * @description Kafka上传通知连接器，消费对象存储上传事件并交给摄入回调处理
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的接口
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 连接建立 -> 拉取消息 -> 事件反序列化 -> 回调处理 -> 提交位点
 * @rules 反序列化失败的消息记录后跳过；回调失败的消息不提交，由消费组重投
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/models/record.go, service/validation/ingest_service.go
 */
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"customer360-service/service/models"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka上传通知消费配置
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	GroupID string   `json:"group_id"`
}

// ObjectEventHandler 上传事件处理函数类型
type ObjectEventHandler func(ctx context.Context, event models.ObjectEvent) error

// KafkaConnector Kafka上传通知连接器
type KafkaConnector struct {
	config      *KafkaConfig
	reader      *kafka.Reader
	handler     ObjectEventHandler
	logger      *log.Logger
	mutex       sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	isConnected bool
}

// NewKafkaConnector 创建新的Kafka上传通知连接器
func NewKafkaConnector(config *KafkaConfig, handler ObjectEventHandler, logger *log.Logger) *KafkaConnector {
	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaConnector{
		config:  config,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect 建立Kafka连接并启动消费循环
func (kc *KafkaConnector) Connect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if kc.isConnected {
		return nil
	}
	if len(kc.config.Brokers) == 0 || kc.config.Topic == "" {
		return fmt.Errorf("Kafka配置缺少brokers或topic")
	}

	kc.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kc.config.Brokers,
		Topic:          kc.config.Topic,
		GroupID:        kc.config.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0, // 手动提交
	})

	go kc.consumeLoop()

	kc.isConnected = true
	kc.logger.Printf("Kafka上传通知连接器已启动: brokers=%v, topic=%s, group=%s",
		kc.config.Brokers, kc.config.Topic, kc.config.GroupID)
	return nil
}

// consumeLoop 消费循环
func (kc *KafkaConnector) consumeLoop() {
	for {
		msg, err := kc.reader.FetchMessage(kc.ctx)
		if err != nil {
			if kc.ctx.Err() != nil {
				return
			}
			kc.logger.Printf("拉取Kafka消息失败: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var event models.ObjectEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			kc.logger.Printf("解析上传事件失败，跳过消息: %v", err)
			if commitErr := kc.reader.CommitMessages(kc.ctx, msg); commitErr != nil {
				kc.logger.Printf("提交消息位点失败: %v", commitErr)
			}
			continue
		}

		if err := kc.handler(kc.ctx, event); err != nil {
			// 不提交位点，等待消费组重投
			kc.logger.Printf("处理上传事件失败: key=%s, error=%v", event.Key, err)
			continue
		}

		if err := kc.reader.CommitMessages(kc.ctx, msg); err != nil {
			kc.logger.Printf("提交消息位点失败: %v", err)
		}
	}
}

// Disconnect 断开Kafka连接
func (kc *KafkaConnector) Disconnect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if !kc.isConnected {
		return nil
	}

	kc.cancel()
	if kc.reader != nil {
		if err := kc.reader.Close(); err != nil {
			return fmt.Errorf("关闭Kafka消费者失败: %w", err)
		}
	}
	kc.isConnected = false
	kc.logger.Printf("Kafka上传通知连接器已停止")
	return nil
}

// IsConnected 返回连接状态
func (kc *KafkaConnector) IsConnected() bool {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()
	return kc.isConnected
}

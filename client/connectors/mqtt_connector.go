/*
 * @module MQTTConnector
 * @description MQTT上传通知连接器，订阅对象存储上传事件主题并交给摄入回调处理
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的接口
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 连接建立 -> 主题订阅 -> 消息处理 -> 连接断开
 * @rules 支持自动重连与QoS控制；反序列化失败的消息记录后丢弃
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
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

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig MQTT上传通知订阅配置
type MQTTConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// MQTTConnector MQTT上传通知连接器
type MQTTConnector struct {
	config      *MQTTConfig
	client      mqtt.Client
	handler     ObjectEventHandler
	logger      *log.Logger
	mutex       sync.RWMutex
	isConnected bool
}

// NewMQTTConnector 创建新的MQTT上传通知连接器
func NewMQTTConnector(config *MQTTConfig, handler ObjectEventHandler, logger *log.Logger) *MQTTConnector {
	connector := &MQTTConnector{
		config:  config,
		handler: handler,
		logger:  logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)

	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}

	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)

	opts.SetOnConnectHandler(connector.onConnected)
	opts.SetConnectionLostHandler(connector.onConnectionLost)

	connector.client = mqtt.NewClient(opts)
	return connector
}

// Connect 建立MQTT连接
func (mc *MQTTConnector) Connect() error {
	token := mc.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("MQTT连接超时")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT连接失败: %w", err)
	}
	return nil
}

// onConnected 连接建立后订阅上传事件主题
func (mc *MQTTConnector) onConnected(client mqtt.Client) {
	mc.mutex.Lock()
	mc.isConnected = true
	mc.mutex.Unlock()

	token := client.Subscribe(mc.config.Topic, mc.config.QoS, mc.onMessage)
	if !token.WaitTimeout(10 * time.Second) {
		mc.logger.Printf("订阅主题 %s 超时", mc.config.Topic)
		return
	}
	if err := token.Error(); err != nil {
		mc.logger.Printf("订阅主题 %s 失败: %v", mc.config.Topic, err)
		return
	}
	mc.logger.Printf("MQTT上传通知连接器已订阅主题: %s", mc.config.Topic)
}

// onConnectionLost 连接断开处理
func (mc *MQTTConnector) onConnectionLost(client mqtt.Client, err error) {
	mc.mutex.Lock()
	mc.isConnected = false
	mc.mutex.Unlock()
	mc.logger.Printf("MQTT连接已断开: %v", err)
}

// onMessage 处理收到的上传事件消息
func (mc *MQTTConnector) onMessage(client mqtt.Client, msg mqtt.Message) {
	var event models.ObjectEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		mc.logger.Printf("解析上传事件失败，丢弃消息: %v", err)
		return
	}

	if err := mc.handler(context.Background(), event); err != nil {
		mc.logger.Printf("处理上传事件失败: key=%s, error=%v", event.Key, err)
	}
}

// Disconnect 断开MQTT连接
func (mc *MQTTConnector) Disconnect() error {
	mc.client.Disconnect(250)
	mc.mutex.Lock()
	mc.isConnected = false
	mc.mutex.Unlock()
	mc.logger.Printf("MQTT上传通知连接器已停止")
	return nil
}

// IsConnected 返回连接状态
func (mc *MQTTConnector) IsConnected() bool {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.isConnected
}

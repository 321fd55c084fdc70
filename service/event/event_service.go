/*
 * @module service/event_service
 * @description 事件管理服务，监听run_records表变更并通过SSE向客户端推送作业状态
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference ai_docs/customer360_event_push.md
 * @stateFlow 数据库触发器NOTIFY -> 监听器接收 -> 事件构建 -> 客户端推送
 * @rules 通知通道为customer360_changes；事件队列满时丢弃而不阻塞推送循环
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/models/sse.go, api/controllers/event_controller.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"customer360-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const notifyChannel = "customer360_changes"

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EventService 事件管理服务
type EventService struct {
	db              *gorm.DB
	connections     map[string]map[string]*SSEClient // userName -> connectionID -> client
	mu              sync.RWMutex
	dbListener      *pq.Listener
	ctx             context.Context
	cancel          context.CancelFunc
	functionCreated bool // 标记通知函数是否已创建
}

// SSEClient SSE客户端连接
type SSEClient struct {
	ID       string
	UserName string
	Channel  chan *models.SSEEvent
	Done     chan bool
	ClientIP string
}

// NewEventService 创建事件服务实例
func NewEventService(db *gorm.DB) *EventService {
	ctx, cancel := context.WithCancel(context.Background())

	service := &EventService{
		db:          db,
		connections: make(map[string]map[string]*SSEClient),
		ctx:         ctx,
		cancel:      cancel,
	}

	// 为run_records表准备通知触发器
	if err := service.ensureRunRecordTrigger(); err != nil {
		log.Printf("准备run_records触发器失败: %v", err)
	}

	// 启动数据库监听器
	go service.startDBListener()

	// 启动连接清理器
	go service.startConnectionJanitor()

	return service
}

// === SSE连接管理 ===

// AddSSEConnection 添加SSE连接
func (s *EventService) AddSSEConnection(userName, connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[userName] == nil {
		s.connections[userName] = make(map[string]*SSEClient)
	}

	client := &SSEClient{
		ID:       connectionID,
		UserName: userName,
		Channel:  make(chan *models.SSEEvent, 100), // 缓冲100个事件
		Done:     make(chan bool),
		ClientIP: clientIP,
	}

	s.connections[userName][connectionID] = client

	// 记录连接到数据库
	connection := &models.SSEConnection{
		UserName:     userName,
		ConnectionID: connectionID,
		ClientIP:     clientIP,
		ConnectedAt:  time.Now(),
		LastPingAt:   time.Now(),
		IsActive:     true,
	}
	s.db.Create(connection)

	log.Printf("SSE连接已建立: 用户=%s, 连接ID=%s, IP=%s", userName, connectionID, clientIP)
	return client
}

// RemoveSSEConnection 移除SSE连接
func (s *EventService) RemoveSSEConnection(userName, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userConnections, exists := s.connections[userName]; exists {
		if client, exists := userConnections[connectionID]; exists {
			close(client.Done)
			delete(userConnections, connectionID)

			if len(userConnections) == 0 {
				delete(s.connections, userName)
			}

			// 更新数据库连接状态
			s.db.Model(&models.SSEConnection{}).
				Where("connection_id = ?", connectionID).
				Update("is_active", false)

			log.Printf("SSE连接已断开: 用户=%s, 连接ID=%s", userName, connectionID)
		}
	}
}

// SendEventToUser 向指定用户发送事件
func (s *EventService) SendEventToUser(userName string, event *models.SSEEvent) error {
	s.mu.RLock()
	userConnections, exists := s.connections[userName]
	s.mu.RUnlock()

	if !exists {
		log.Printf("用户 %s 没有活跃的SSE连接", userName)
		return fmt.Errorf("用户 %s 没有活跃的SSE连接", userName)
	}

	// 保存事件到数据库
	if err := s.db.Create(event).Error; err != nil {
		log.Printf("保存SSE事件失败: %v", err)
		return err
	}

	for _, client := range userConnections {
		select {
		case client.Channel <- event:
			log.Printf("事件已发送到用户 %s 的连接 %s", userName, client.ID)
		default:
			log.Printf("用户 %s 的连接 %s 事件队列已满，跳过发送", userName, client.ID)
		}
	}

	return nil
}

// BroadcastEvent 广播事件给所有用户
func (s *EventService) BroadcastEvent(event *models.SSEEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 保存事件到数据库
	if err := s.db.Create(event).Error; err != nil {
		log.Printf("保存广播事件失败: %v", err)
		return err
	}

	for userName, userConnections := range s.connections {
		for _, client := range userConnections {
			eventCopy := *event
			eventCopy.UserName = userName

			select {
			case client.Channel <- &eventCopy:
				log.Printf("广播事件已发送到用户 %s 的连接 %s", userName, client.ID)
			default:
				log.Printf("用户 %s 的连接 %s 事件队列已满，跳过广播", userName, client.ID)
			}
		}
	}

	return nil
}

// === 数据库监听实现 ===

// startDBListener 启动数据库监听器
func (s *EventService) startDBListener() {
	// 获取数据库连接信息
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		// 从环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// 创建PostgreSQL监听器
	s.dbListener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("PostgreSQL监听器事件: %v, 错误: %v", ev, err)
		}
	})

	// 监听数据库通知
	if err := s.dbListener.Listen(notifyChannel); err != nil {
		log.Printf("监听数据库通知失败: %v", err)
		return
	}

	log.Println("数据库监听器已启动")

	for {
		select {
		case notification := <-s.dbListener.Notify:
			if notification != nil {
				s.handleDBNotification(notification)
			}
		case <-s.ctx.Done():
			log.Println("数据库监听器已停止")
			return
		}
	}
}

// handleDBNotification 处理数据库通知
// run_records表的变更广播为run_status_changed事件
func (s *EventService) handleDBNotification(notification *pq.Notification) {
	var changeData map[string]interface{}
	if err := json.Unmarshal([]byte(notification.Extra), &changeData); err != nil {
		log.Printf("解析数据库通知失败: %v", err)
		return
	}

	tableName, _ := changeData["table"].(string)
	eventType, _ := changeData["type"].(string)
	recordID, _ := changeData["record_id"].(string)

	log.Printf("收到数据库变更通知: 表=%s, 类型=%s, 记录ID=%s", tableName, eventType, recordID)

	if tableName != (models.RunRecord{}).TableName() {
		return
	}

	payload, err := json.Marshal(changeData)
	if err != nil {
		log.Printf("序列化事件负载失败: %v", err)
		return
	}

	event := &models.SSEEvent{
		EventType: "run_status_changed",
		Payload:   string(payload),
		Sent:      true,
	}
	if err := s.BroadcastEvent(event); err != nil {
		log.Printf("广播作业状态事件失败: %v", err)
	}
}

// startConnectionJanitor 定期清理已断开的连接
func (s *EventService) startConnectionJanitor() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupInactiveConnections()
		case <-s.ctx.Done():
			log.Println("连接清理器已停止")
			return
		}
	}
}

// cleanupInactiveConnections 清理不活跃的连接
func (s *EventService) cleanupInactiveConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userName, userConnections := range s.connections {
		for connectionID, client := range userConnections {
			select {
			case <-client.Done:
				delete(userConnections, connectionID)
				log.Printf("清理已断开的连接: 用户=%s, 连接ID=%s", userName, connectionID)
			default:
				// 连接仍然活跃
			}
		}

		if len(userConnections) == 0 {
			delete(s.connections, userName)
		}
	}
}

// Stop 停止事件服务
func (s *EventService) Stop() {
	s.cancel()

	if s.dbListener != nil {
		s.dbListener.Close()
	}

	// 关闭所有SSE连接
	s.mu.Lock()
	for _, userConnections := range s.connections {
		for _, client := range userConnections {
			close(client.Done)
		}
	}
	s.connections = make(map[string]map[string]*SSEClient)
	s.mu.Unlock()

	log.Println("事件服务已停止")
}

// ensureRunRecordTrigger 确保run_records表的通知函数与触发器存在
func (s *EventService) ensureRunRecordTrigger() error {
	if err := s.createNotifyFunction(); err != nil {
		return fmt.Errorf("创建通知函数失败: %w", err)
	}

	tableName := (models.RunRecord{}).TableName()
	triggerName := tableName + "_notify"
	createTriggerSQL := fmt.Sprintf(`
		CREATE OR REPLACE TRIGGER %s
		AFTER INSERT OR UPDATE ON %s
		FOR EACH ROW
		EXECUTE FUNCTION notify_customer360_changes();
	`, triggerName, tableName)

	if err := s.db.Exec(createTriggerSQL).Error; err != nil {
		return fmt.Errorf("执行创建触发器SQL失败: %w", err)
	}
	log.Printf("表 %s 的触发器 %s 已就绪", tableName, triggerName)
	return nil
}

// createNotifyFunction 创建数据库通知函数
func (s *EventService) createNotifyFunction() error {
	if s.functionCreated {
		return nil
	}

	createFunctionSQL := `
CREATE OR REPLACE FUNCTION notify_customer360_changes()
RETURNS TRIGGER AS $$
DECLARE
    payload JSON;
BEGIN
    payload := json_build_object(
        'table', TG_TABLE_NAME,
        'type', TG_OP,
        'record_id', NEW.job_id,
        'status', NEW.status,
        'timestamp', extract(epoch from now())
    );
    PERFORM pg_notify('customer360_changes', payload::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

	if err := s.db.Exec(createFunctionSQL).Error; err != nil {
		return fmt.Errorf("执行创建函数SQL失败: %w", err)
	}

	log.Println("数据库通知函数 notify_customer360_changes() 已创建")
	s.functionCreated = true
	return nil
}

// GetSSEConnectionList 获取SSE连接列表
func (s *EventService) GetSSEConnectionList(page, pageSize int, userName, clientIP string, isActive *bool) ([]models.SSEConnection, int64, error) {
	var connections []models.SSEConnection
	var total int64

	query := s.db.Model(&models.SSEConnection{})

	if userName != "" {
		query = query.Where("user_name = ?", userName)
	}
	if clientIP != "" {
		query = query.Where("client_ip = ?", clientIP)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("connected_at DESC").
		Offset(offset).Limit(pageSize).Find(&connections).Error

	return connections, total, err
}

// GetEventHistoryList 获取事件历史列表
func (s *EventService) GetEventHistoryList(page, pageSize int, userName, eventType string, sent, read *bool) ([]models.SSEEvent, int64, error) {
	var events []models.SSEEvent
	var total int64

	query := s.db.Model(&models.SSEEvent{})

	if userName != "" {
		query = query.Where("user_name = ?", userName)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if sent != nil {
		query = query.Where("sent = ?", *sent)
	}
	if read != nil {
		query = query.Where("read = ?", *read)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&events).Error

	return events, total, err
}

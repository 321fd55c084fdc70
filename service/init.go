/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、对象存储、服务装配与调度器启动
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/validation, service/consolidation
 */

package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"customer360-service/client"
	"customer360-service/client/connectors"
	"customer360-service/logger"
	"customer360-service/service/consolidation"
	"customer360-service/service/distributed_lock"
	"customer360-service/service/event"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"
	"customer360-service/service/scheduler"
	"customer360-service/service/validation"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                         *gorm.DB
	GlobalObjectStore          objectstore.ObjectStore
	GlobalEventService         *event.EventService
	GlobalIngestService        *validation.IngestService
	GlobalQualityAggregator    *validation.QualityAggregator
	GlobalConsolidationService *consolidation.Service
	GlobalRunTracker           *consolidation.RunTracker
	GlobalProfileSink          *consolidation.ProfileSink
	GlobalReconcileScheduler   *scheduler.ReconcileScheduler
	GlobalDistributedLock      distributed_lock.DistributedLock
	GlobalKafkaConnector       *connectors.KafkaConnector
	GlobalMQTTConnector        *connectors.MQTTConnector
)

func init() {
	logger.InitLogger()
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	err := DB.AutoMigrate(
		&models.RunRecord{},
		&models.SourceQuality{},
		&models.CustomerProfile{},
		&models.SSEEvent{},
		&models.SSEConnection{},
	)
	if err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	var err error

	GlobalObjectStore, err = objectstore.NewObjectStoreFromEnv()
	if err != nil {
		log.Fatalf("对象存储初始化失败: %v", err)
	}

	// 分布式锁为可选能力，Redis不可用时退化为单实例运行
	if lock, lockErr := distributed_lock.NewRedisLock(); lockErr != nil {
		log.Printf("分布式锁初始化失败，以单实例模式运行: %v", lockErr)
	} else {
		GlobalDistributedLock = lock
	}

	// 事件服务
	GlobalEventService = event.NewEventService(DB)

	// 校验与质量
	validator := validation.NewValidator()
	if err := validator.LoadScriptRulesFromEnv(); err != nil {
		log.Fatalf("装载校验脚本规则失败: %v", err)
	}
	writer := validation.NewPartitionWriter(GlobalObjectStore)
	GlobalQualityAggregator = validation.NewQualityAggregator(DB, GlobalObjectStore)
	GlobalIngestService = validation.NewIngestService(GlobalObjectStore, validator, writer, GlobalQualityAggregator)

	// 整合与画像
	GlobalRunTracker = consolidation.NewRunTracker(DB)
	GlobalProfileSink = consolidation.NewProfileSink(DB)
	consolidator := consolidation.NewConsolidator(GlobalObjectStore)
	var tagger *consolidation.SentimentTagger
	if !strings.EqualFold(getEnvWithDefault("SENTIMENT_ENABLED", "true"), "false") {
		tagger = consolidation.NewSentimentTagger(client.NewClassifierClient())
	}
	GlobalConsolidationService = consolidation.NewService(
		GlobalRunTracker, consolidator, tagger, GlobalProfileSink, GlobalDistributedLock)

	// 摄入侧触发整合
	GlobalIngestService.RegisterTrigger(GlobalConsolidationService)

	// 对账调度器
	GlobalReconcileScheduler = scheduler.NewReconcileScheduler(GlobalQualityAggregator, GlobalConsolidationService)
	GlobalReconcileScheduler.SetDistributedLock(GlobalDistributedLock)
	if err := GlobalReconcileScheduler.StartScheduler(); err != nil {
		log.Printf("启动对账调度器失败: %v", err)
	}

	// 上传通知连接器
	startUploadConnectors()

	log.Println("服务初始化完成")
}

// startUploadConnectors 按环境配置启动Kafka/MQTT上传通知消费
// 两类连接器都将上传事件交给摄入服务处理，未配置时跳过
func startUploadConnectors() {
	handler := func(ctx context.Context, e models.ObjectEvent) error {
		result, err := GlobalIngestService.ProcessEvent(ctx, e)
		if err != nil {
			return err
		}
		if result.Skipped {
			log.Printf("上传事件已跳过: key=%s reason=%s", e.Key, result.Reason)
		}
		return nil
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kc := connectors.NewKafkaConnector(&connectors.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   getEnvWithDefault("KAFKA_UPLOAD_TOPIC", "customer360-uploads"),
			GroupID: getEnvWithDefault("KAFKA_GROUP_ID", "customer360-service"),
		}, handler, log.Default())
		if err := kc.Connect(); err != nil {
			log.Printf("Kafka上传通知连接器启动失败: %v", err)
		} else {
			GlobalKafkaConnector = kc
		}
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		mc := connectors.NewMQTTConnector(&connectors.MQTTConfig{
			Broker:   broker,
			ClientID: getEnvWithDefault("MQTT_CLIENT_ID", "customer360-service"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			Topic:    getEnvWithDefault("MQTT_UPLOAD_TOPIC", "customer360/uploads"),
			QoS:      1,
		}, handler, log.Default())
		if err := mc.Connect(); err != nil {
			log.Printf("MQTT上传通知连接器启动失败: %v", err)
		} else {
			GlobalMQTTConnector = mc
		}
	}
}

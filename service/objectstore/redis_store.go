/*
 * @module service/objectstore/redis_store
 * @description Redis对象存储后端，对象内容以string键值存放，另维护一个有序集合作为键索引以支持前缀列举
 * @architecture 适配器模式 - 封装go-redis客户端
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 连接建立 -> 键值读写 -> 索引维护 -> 前缀扫描
 * @rules 写入与索引维护在同一pipeline中提交；列举结果按键排序
 * @dependencies github.com/go-redis/redis/v8
 * @refs store.go
 */

package objectstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	objectKeyPrefix = "customer360:object:"
	objectIndexKey  = "customer360:object_index"
)

// RedisStore Redis对象存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStoreFromEnv 从环境变量创建Redis对象存储
func NewRedisStoreFromEnv() (*RedisStore, error) {
	host := getEnvWithDefault("REDIS_HOST", "localhost")
	port := getEnvWithDefault("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		fmt.Sscanf(dbStr, "%d", &db)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStore 使用现有客户端创建Redis对象存储（用于测试）
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get 读取对象内容
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	content, err := s.client.Get(ctx, objectKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("读取对象失败: %w", err)
	}
	return content, nil
}

// Put 覆盖写入对象内容并维护键索引
func (s *RedisStore) Put(ctx context.Context, key string, content []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, objectKeyPrefix+key, content, 0)
	pipe.ZAdd(ctx, objectIndexKey, &redis.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入对象失败: %w", err)
	}
	return nil
}

// List 列举前缀下的所有对象键
// 利用有序集合的字典序范围查询完成前缀扫描
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	members, err := s.client.ZRangeByLex(ctx, objectIndexKey, &redis.ZRangeBy{
		Min: "[" + prefix,
		Max: "[" + prefix + "\xff",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("列举对象失败: %w", err)
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		if strings.HasPrefix(member, prefix) {
			keys = append(keys, member)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete 删除对象与索引项
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, objectKeyPrefix+key)
	pipe.ZRem(ctx, objectIndexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("删除对象失败: %w", err)
	}
	return nil
}

// Close 关闭Redis客户端
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

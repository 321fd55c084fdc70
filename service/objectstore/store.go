/*
 * @module service/objectstore/store
 * @description 对象存储抽象，提供按键读写与前缀列举能力，键通过路径段承载raw/validated/error分区语义
 * @architecture 适配器模式 - 统一封装文件系统与Redis两种后端
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 按键读取 -> 按键覆盖写入 -> 按前缀列举
 * @rules 写入为整体覆盖语义，重放同一源文件产出相同分区内容
 * @dependencies context
 * @refs fs_store.go, redis_store.go
 */

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("对象不存在")

// ObjectStore 对象存储接口
type ObjectStore interface {
	// Get 读取指定键的对象内容
	Get(ctx context.Context, key string) ([]byte, error)
	// Put 覆盖写入指定键的对象内容
	Put(ctx context.Context, key string, content []byte) error
	// List 列举指定前缀下的所有对象键
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete 删除指定键的对象
	Delete(ctx context.Context, key string) error
}

// NewObjectStoreFromEnv 根据环境变量创建对象存储实例
// OBJECT_STORE_BACKEND=fs（默认）使用本地文件系统，=redis使用Redis后端
func NewObjectStoreFromEnv() (ObjectStore, error) {
	backend := os.Getenv("OBJECT_STORE_BACKEND")
	switch backend {
	case "", "fs":
		root := os.Getenv("OBJECT_STORE_ROOT")
		if root == "" {
			root = "./data/objects"
		}
		return NewFSStore(root)
	case "redis":
		return NewRedisStoreFromEnv()
	default:
		return nil, fmt.Errorf("不支持的对象存储后端: %s", backend)
	}
}

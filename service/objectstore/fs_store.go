/*
 * @module service/objectstore/fs_store
 * @description 文件系统对象存储后端，将对象键映射为根目录下的相对路径
 * @architecture 适配器模式 - 本地调试与单机部署使用
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 键 -> 路径映射 -> 原子覆盖写入
 * @rules 键不允许逃逸出根目录；写入先落临时文件再改名，保证读端不见半成品
 * @dependencies os, path/filepath
 * @refs store.go
 */

package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore 文件系统对象存储
type FSStore struct {
	root string
}

// NewFSStore 创建文件系统对象存储
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("解析存储根目录失败: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储根目录失败: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// resolve 将对象键映射为根目录下的绝对路径
func (s *FSStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("非法的对象键: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Get 读取对象内容
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("读取对象失败: %w", err)
	}
	return content, nil
}

// Put 覆盖写入对象内容
// 先写临时文件再改名，避免并发读端观察到写了一半的对象
func (s *FSStore) Put(ctx context.Context, key string, content []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建对象目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入对象失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换对象失败: %w", err)
	}
	return nil
}

// List 列举前缀下的所有对象键，结果按键排序
func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".put-") {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("列举对象失败: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete 删除对象
func (s *FSStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除对象失败: %w", err)
	}
	return nil
}

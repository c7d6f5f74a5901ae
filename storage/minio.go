package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"espotifai/config"
	"espotifai/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SnapshotPrefix 快照对象的前缀
const SnapshotPrefix = "snapshots/"

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// MinioClient 封装了 MinIO 客户端
type MinioClient struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinioClient 创建一个新的 MinIO 客户端
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("MinIO endpoint is not configured")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("MinIO bucket is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	return &MinioClient{client: client, bucketName: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket 检查存储桶是否存在, 不存在则创建
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("Created bucket", logger.String("bucket", m.bucketName))
	return nil
}

// PutJSON 将 v 编码为 JSON 并上传到 key
func (m *MinioClient) PutJSON(ctx context.Context, key string, v interface{}) (int64, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", key, err)
	}

	info, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return 0, fmt.Errorf("上传 %s 失败: %w", key, err)
	}

	logger.Info("Uploaded object",
		logger.String("bucket", m.bucketName),
		logger.String("key", key),
		logger.Int64("size", info.Size),
	)
	return info.Size, nil
}

// ListObjects 列出指定前缀下的对象, 按修改时间倒序
func (m *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for object := range m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("列出对象失败: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// SnapshotKey 返回指定时间的快照对象名
func SnapshotKey(t time.Time) string {
	return SnapshotPrefix + "catalog-" + t.UTC().Format(time.RFC3339) + ".json"
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

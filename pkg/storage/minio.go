// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resume-chat-go/internal/config"
	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/pkg/log"
)

// Object 描述对象存储中的一个对象。Metadata 的 key 统一为小写且不带 x-amz-meta- 前缀。
type Object struct {
	Key         string
	ContentType string
	Size        int64
	UploadedAt  time.Time
	Metadata    map[string]string
}

// ObjectStore 是业务层依赖的对象存储能力。
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (Object, error)
	Head(ctx context.Context, key string) (Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// objectAPI 是 *minio.Client 中被用到的方法子集，便于在测试中替换。
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStore 实现了 ObjectStore。
type MinioStore struct {
	api    objectAPI
	bucket string
	open   func(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewMinioStore 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinioStore(cfg config.MinIOConfig) (*MinioStore, error) {
	// 1. 初始化 MinIO 客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}

	store := newMinioStore(client, cfg.BucketName)
	store.open = func(ctx context.Context, key string) (io.ReadCloser, error) {
		return client.GetObject(ctx, cfg.BucketName, key, minio.GetObjectOptions{})
	}
	return store, nil
}

func newMinioStore(api objectAPI, bucket string) *MinioStore {
	return &MinioStore{api: api, bucket: bucket}
}

// Put 上传一个对象，metadata 以 x-amz-meta-* 的形式附加在对象上。
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (Object, error) {
	info, err := m.api.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return Object{}, fmt.Errorf("%w: put object %s: %v", apperrors.ErrUpstream, key, err)
	}
	uploadedAt := info.LastModified
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	return Object{
		Key:         key,
		ContentType: contentType,
		Size:        info.Size,
		UploadedAt:  uploadedAt,
		Metadata:    normalizeMetadata(metadata),
	}, nil
}

// Head 读取对象元数据，对象不存在时返回 ErrNotFound。
func (m *MinioStore) Head(ctx context.Context, key string) (Object, error) {
	info, err := m.api.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, m.wrap(err, "stat", key)
	}
	return toObject(info), nil
}

// List 返回前缀下的全部对象，按上传时间倒序。
func (m *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	objects := make([]Object, 0)
	for info := range m.api.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("%w: list objects %s: %v", apperrors.ErrUpstream, prefix, info.Err)
		}
		objects = append(objects, toObject(info))
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].UploadedAt.After(objects[j].UploadedAt)
	})
	return objects, nil
}

// Open 打开对象内容，调用方负责关闭。
func (m *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.open == nil {
		return nil, fmt.Errorf("%w: object reader not configured", apperrors.ErrUpstream)
	}
	rc, err := m.open(ctx, key)
	if err != nil {
		return nil, m.wrap(err, "get", key)
	}
	return rc, nil
}

// Delete 删除一个对象。
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.api.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return m.wrap(err, "remove", key)
	}
	return nil
}

func (m *MinioStore) wrap(err error, op, key string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return fmt.Errorf("%w: object %s", apperrors.ErrNotFound, key)
	}
	return fmt.Errorf("%w: %s object %s: %v", apperrors.ErrUpstream, op, key, err)
}

func toObject(info minio.ObjectInfo) Object {
	return Object{
		Key:         info.Key,
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedAt:  info.LastModified,
		Metadata:    normalizeMetadata(info.UserMetadata),
	}
}

// normalizeMetadata 统一元数据 key：StatObject 返回 "Userid"，带元数据的 List 返回 "X-Amz-Meta-Userid"。
func normalizeMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.ToLower(k)
		key = strings.TrimPrefix(key, "x-amz-meta-")
		out[key] = v
	}
	return out
}

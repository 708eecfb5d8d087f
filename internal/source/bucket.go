package source

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketConfig 描述上传文件所在的 MinIO/S3 bucket。
type BucketConfig struct {
	Endpoint  string // host:port，不带 scheme
	AccessKey string
	SecretKey string
	Secure    bool
	// Region 为空时使用 us-east-1（MinIO 默认），避免额外的 GetBucketLocation 请求。
	Region string
	Name   string
	// Prefix 只列出该前缀下的对象（可选）。
	Prefix string
}

// Bucket 通过列举上传 bucket 的对象得到文件名。
//
// 上传服务写入的对象名形如 "<32 位 hex uuid>_<原始文件名>"；这里剥掉 uuid 前缀还原原始文件名。
// 不符合该形态的对象名原样保留。
type Bucket struct {
	cfg    BucketConfig
	client *minio.Client
}

func NewBucket(cfg BucketConfig) (*Bucket, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Name = strings.TrimSpace(cfg.Name)
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("bucket.endpoint 不能为空")
	}
	if cfg.Name == "" {
		return nil, errors.New("bucket.name 不能为空")
	}

	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &Bucket{cfg: cfg, client: c}, nil
}

// ListBucket 按对象 key 的顺序（S3 ListObjects 的字典序）返回文件名，每个对象一行。
func (b *Bucket) ListBucket(ctx context.Context) ([]string, error) {
	// 提前返回时取消 ctx，让 ListObjects 的后台 goroutine 退出。
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	names := make([]string, 0, 64)
	for obj := range b.client.ListObjects(ctx, b.cfg.Name, minio.ListObjectsOptions{
		Prefix:    b.cfg.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		names = append(names, OriginalName(strings.TrimPrefix(obj.Key, b.cfg.Prefix)))
	}
	return names, nil
}

var uploadPrefixRE = regexp.MustCompile(`^[0-9a-f]{32}_`)

// OriginalName 去掉上传时加在对象名前的 uuid 前缀。
func OriginalName(objectName string) string {
	if loc := uploadPrefixRE.FindStringIndex(objectName); loc != nil && loc[1] < len(objectName) {
		return objectName[loc[1]:]
	}
	return objectName
}

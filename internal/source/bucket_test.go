package source

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/minio/minio-go/v7"
)

func setupFakeBucket(t *testing.T, objects ...string) BucketConfig {
	t.Helper()

	ts := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("解析地址失败：%v", err)
	}
	cfg := BucketConfig{
		Endpoint:  u.Host,
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
		Name:      "default",
	}

	b, err := NewBucket(cfg)
	if err != nil {
		t.Fatalf("创建 bucket 客户端失败：%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := b.client.MakeBucket(ctx, cfg.Name, minio.MakeBucketOptions{}); err != nil {
		t.Fatalf("创建 bucket 失败：%v", err)
	}
	for _, name := range objects {
		body := []byte("x")
		if _, err := b.client.PutObject(ctx, cfg.Name, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{}); err != nil {
			t.Fatalf("写入对象 %q 失败：%v", name, err)
		}
	}
	return cfg
}

func TestBucket_ListStripsUploadPrefix(t *testing.T) {
	cfg := setupFakeBucket(t,
		"0123456789abcdef0123456789abcdef_report.pdf",
		"fedcba9876543210fedcba9876543210_notes.txt",
		"plain.docx",
	)

	b, err := NewBucket(cfg)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	l, err := b.Files(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	// ListObjects 按 key 字典序返回。
	want := []string{"report.pdf", "notes.txt", "plain.docx"}
	if l.Count() != len(want) {
		t.Fatalf("期望 %q，实际 %q", want, l.Names)
	}
	for i := range want {
		if l.Names[i] != want[i] {
			t.Fatalf("names[%d]=%q，期望 %q", i, l.Names[i], want[i])
		}
	}
}

func TestBucket_EmptyBucket(t *testing.T) {
	cfg := setupFakeBucket(t)

	b, err := NewBucket(cfg)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	l, err := b.Files(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !l.Present || l.Count() != 0 {
		t.Fatalf("空 bucket 应返回已提供的空序列：%+v", l)
	}
}

func TestBucket_MissingBucketFails(t *testing.T) {
	cfg := setupFakeBucket(t)
	cfg.Name = "nope"

	b, err := NewBucket(cfg)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := b.Files(context.Background()); err == nil {
		t.Fatalf("不存在的 bucket 应报错")
	}
}

func TestNewBucket_RequiresEndpointAndName(t *testing.T) {
	if _, err := NewBucket(BucketConfig{Name: "x"}); err == nil {
		t.Fatalf("缺少 endpoint 应报错")
	}
	if _, err := NewBucket(BucketConfig{Endpoint: "127.0.0.1:9000"}); err == nil {
		t.Fatalf("缺少 name 应报错")
	}
}

func TestOriginalName(t *testing.T) {
	cases := map[string]string{
		"0123456789abcdef0123456789abcdef_a.pdf": "a.pdf",
		"0123456789abcdef0123456789abcdef_":      "0123456789abcdef0123456789abcdef_",
		"0123456789ABCDEF0123456789ABCDEF_a.pdf": "0123456789ABCDEF0123456789ABCDEF_a.pdf",
		"short_a.pdf":                            "short_a.pdf",
		"a.pdf":                                  "a.pdf",
	}
	for in, want := range cases {
		if got := OriginalName(in); got != want {
			t.Fatalf("OriginalName(%q)=%q，期望 %q", in, got, want)
		}
	}
}

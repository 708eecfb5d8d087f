package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEffective_NoConfigDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != "" {
		t.Fatalf("没有配置文件时 ConfigPath 应为空，实际=%q", eff.ConfigPath)
	}
	if eff.Source != DefaultSource || eff.Format != DefaultFormat || eff.Listen != DefaultListen || eff.LogFormat != DefaultLogFormat {
		t.Fatalf("默认值不一致：%+v", eff)
	}
	if len(eff.Extensions) != 3 {
		t.Fatalf("期望默认扩展名集合，实际 %q", eff.Extensions)
	}
}

func TestLoadEffective_CLIDirInfersSource(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"source":"remote","remote":{"base_url":"http://127.0.0.1:8000"}}`))

	eff, err := LoadEffective(cwd, CLIArgs{Dir: "docs"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Source != "dir" {
		t.Fatalf("期望 source=dir，实际=%q", eff.Source)
	}
	if want := filepath.Join(cwd, "docs"); eff.Dir != want {
		t.Fatalf("期望 dir=%q，实际=%q", want, eff.Dir)
	}
}

func TestLoadEffective_FormatMergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"format":"text"}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Format != "text" {
		t.Fatalf("期望 format=text，实际=%q", eff.Format)
	}

	eff2, err := LoadEffective(cwd, CLIArgs{Format: "json"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.Format != "json" {
		t.Fatalf("期望 CLI 覆盖为 json，实际=%q", eff2.Format)
	}
}

func TestLoadEffective_ExtensionsEmptyMeansAll(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"extensions":[]}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Extensions == nil || len(eff.Extensions) != 0 {
		t.Fatalf("extensions=[] 应保持为空集合，实际 %#v", eff.Extensions)
	}
}

func TestLoadEffective_MissingSourceFields(t *testing.T) {
	cases := map[string]CLIArgs{
		"dir":    {Source: "dir"},
		"remote": {Source: "remote"},
		"bucket": {Source: "bucket"},
	}
	for name, cli := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MINIO_ENDPOINT", "")
			t.Setenv("MINIO_BUCKET", "")
			_, err := LoadEffective(t.TempDir(), cli)
			if Code(err) != ErrCodeMissingSource {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingSource, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"json":       `{`,
		"source":     `{"source":"ftp"}`,
		"format":     `{"format":"pdf"}`,
		"log_format": `{"log_format":"xml"}`,
		"remote":     `{"remote":{"base_url":"ftp://x"}}`,
		"proxy":      `{"proxy":{"url":"http://[::1"}}`,
		"endpoint":   `{"bucket":{"endpoint":"http://127.0.0.1:9000","name":"b"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(body))
			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_RemotePageSizeClamp(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"source":"remote","remote":{"base_url":"http://127.0.0.1:8000/api","page_size":500}}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.RemotePageSize != 100 {
		t.Fatalf("期望 page_size 截断为 100，实际=%d", eff.RemotePageSize)
	}
}

func TestLoadEffective_BucketEnvOverrides(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"source":"bucket","bucket":{"endpoint":"minio:9000","name":"cfg","secure":true}}`))

	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_BUCKET", "default")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("MINIO_SECURE", "false")

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b := eff.Bucket
	if b.Endpoint != "localhost:9000" || b.Name != "default" || b.AccessKey != "minioadmin" || b.Secure {
		t.Fatalf("环境变量应覆盖配置文件：%+v", b)
	}
}

func TestLoadEffective_BucketInvalidSecureEnv(t *testing.T) {
	t.Setenv("MINIO_SECURE", "yes")
	_, err := LoadEffective(t.TempDir(), CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_AbsoluteDirKept(t *testing.T) {
	cwd := t.TempDir()
	dir := filepath.Join(t.TempDir(), "files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{Dir: dir})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Dir != dir {
		t.Fatalf("期望 dir=%q，实际=%q", dir, eff.Dir)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}

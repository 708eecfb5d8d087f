package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/filecard/internal/card"
	"github.com/John-Robertt/filecard/internal/source"
)

// FileName 是配置文件名；固定位于 cwd 下，可选。
const FileName = "filecard.json"

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingSource 表示所选来源缺少必填字段（例如 dir 来源没有 dir）。
	ErrCodeMissingSource = "config_missing_source"
)

const (
	DefaultSource    = source.KindProps
	DefaultFormat    = card.FormatHTML
	DefaultListen    = ":8080"
	DefaultLogFormat = "text"
)

// CLIArgs 是 CLI 暴露的入口；空串表示“未指定”（交给配置文件/默认值）。
type CLIArgs struct {
	Source    string
	Format    string
	PropsPath string // "-" 表示 stdin
	Dir       string
	Listen    string
}

// FileConfig 对应 filecard.json 的解析结构。
type FileConfig struct {
	Source      string        `json:"source"`
	Format      string        `json:"format"`
	Dir         string        `json:"dir"`
	ExcludeDirs []string      `json:"exclude_dirs"`
	Extensions  *[]string     `json:"extensions"` // 缺省 => 默认集合；[] => 不过滤
	Remote      *RemoteConfig `json:"remote"`
	Bucket      *BucketConfig `json:"bucket"`
	Proxy       *ProxyConfig  `json:"proxy"`
	Listen      string        `json:"listen"`
	LogFormat   string        `json:"log_format"`
}

type RemoteConfig struct {
	BaseURL  string `json:"base_url"`
	PageSize int    `json:"page_size"`
}

type BucketConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Secure    *bool  `json:"secure"`
	Region    string `json:"region"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取到的配置文件；不存在时为空。
	ConfigPath string

	Source    string
	Format    string
	PropsPath string

	Dir         string
	ExcludeDirs []string
	Extensions  []string

	RemoteBaseURL  string
	RemotePageSize int

	Bucket source.BucketConfig

	ProxyURL  string
	Listen    string
	LogFormat string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	where := e.Path
	if where == "" {
		where = "<cli>"
	}
	switch e.Code {
	case ErrCodeMissingSource:
		return fmt.Sprintf("%s：%s：%v", e.Code, where, e.Err)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, where, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, where)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/filecard.json（可选），与 CLI 参数、环境变量合并为最终配置。
//
// 覆盖优先级（固定）：
// - source：CLI --source > 由 CLI --dir/--props 推断 > config > 默认 props
// - format / dir / listen：CLI > config > 默认
// - bucket：环境变量 MINIO_* > config
// - 其他字段：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		cfgPath = ""
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	missing := func(format string, args ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingSource, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	eff := EffectiveConfig{
		ConfigPath: cfgPath,
		PropsPath:  strings.TrimSpace(cli.PropsPath),
		Listen:     firstNonEmpty(cli.Listen, fc.Listen, DefaultListen),
		LogFormat:  strings.ToLower(firstNonEmpty(fc.LogFormat, DefaultLogFormat)),
	}

	switch {
	case strings.TrimSpace(cli.Source) != "":
		eff.Source = cli.Source
	case strings.TrimSpace(cli.Dir) != "":
		eff.Source = source.KindDir
	case eff.PropsPath != "":
		eff.Source = source.KindProps
	default:
		eff.Source = firstNonEmpty(fc.Source, DefaultSource)
	}
	eff.Source = strings.ToLower(strings.TrimSpace(eff.Source))

	format, err := card.ParseFormat(firstNonEmpty(cli.Format, fc.Format, DefaultFormat))
	if err != nil {
		return invalid(err)
	}
	eff.Format = format

	switch eff.LogFormat {
	case "text", "json":
	default:
		return invalid(fmt.Errorf("log_format 只能是 text 或 json，实际是 %q", eff.LogFormat))
	}

	if dir := firstNonEmpty(cli.Dir, fc.Dir); dir != "" {
		eff.Dir = absCleanFrom(cwdAbs, dir)
	}
	eff.ExcludeDirs = append([]string(nil), fc.ExcludeDirs...)
	if fc.Extensions != nil {
		eff.Extensions = append([]string{}, (*fc.Extensions)...)
	} else {
		eff.Extensions = append([]string{}, source.DefaultExtensions...)
	}

	if fc.Remote != nil {
		eff.RemoteBaseURL = strings.TrimSpace(fc.Remote.BaseURL)
		eff.RemotePageSize = fc.Remote.PageSize
	}
	if eff.RemotePageSize == 0 {
		eff.RemotePageSize = source.DefaultPageSize
	}
	if eff.RemotePageSize < 1 {
		eff.RemotePageSize = 1
	}
	if eff.RemotePageSize > source.MaxPageSize {
		eff.RemotePageSize = source.MaxPageSize
	}
	if eff.RemoteBaseURL != "" {
		if err := validateHTTPURL("remote.base_url", eff.RemoteBaseURL); err != nil {
			return invalid(err)
		}
	}

	eff.Bucket, err = mergeBucket(fc.Bucket)
	if err != nil {
		return invalid(err)
	}

	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if eff.ProxyURL != "" {
		if err := validateHTTPURL("proxy.url", eff.ProxyURL); err != nil {
			return invalid(err)
		}
	}

	switch eff.Source {
	case source.KindProps:
	case source.KindDir:
		if eff.Dir == "" {
			return missing("source=dir 需要 --dir 或配置 dir")
		}
	case source.KindRemote:
		if eff.RemoteBaseURL == "" {
			return missing("source=remote 需要配置 remote.base_url")
		}
	case source.KindBucket:
		if eff.Bucket.Endpoint == "" || eff.Bucket.Name == "" {
			return missing("source=bucket 需要 bucket.endpoint 与 bucket.name（或 MINIO_ENDPOINT / MINIO_BUCKET）")
		}
	default:
		return invalid(fmt.Errorf("source 只能是 props、dir、remote 或 bucket，实际是 %q", eff.Source))
	}

	return eff, nil
}

// mergeBucket 合并 bucket 配置；MINIO_* 环境变量与上传服务使用同一套名字。
func mergeBucket(bc *BucketConfig) (source.BucketConfig, error) {
	var out source.BucketConfig
	if bc != nil {
		out = source.BucketConfig{
			Endpoint:  strings.TrimSpace(bc.Endpoint),
			AccessKey: bc.AccessKey,
			SecretKey: bc.SecretKey,
			Region:    strings.TrimSpace(bc.Region),
			Name:      strings.TrimSpace(bc.Name),
			Prefix:    bc.Prefix,
		}
		if bc.Secure != nil {
			out.Secure = *bc.Secure
		}
	}

	if v := strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")); v != "" {
		out.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		out.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		out.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MINIO_BUCKET")); v != "" {
		out.Name = v
	}
	if v := strings.TrimSpace(os.Getenv("MINIO_SECURE")); v != "" {
		switch strings.ToLower(v) {
		case "true":
			out.Secure = true
		case "false":
			out.Secure = false
		default:
			return source.BucketConfig{}, fmt.Errorf("MINIO_SECURE 只能是 true 或 false，实际是 %q", v)
		}
	}

	if strings.Contains(out.Endpoint, "://") {
		return source.BucketConfig{}, fmt.Errorf("bucket.endpoint 只能是 host:port（不带 scheme）：%q", out.Endpoint)
	}
	return out, nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s 无效：%w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%s 必须是 http/https 地址：%q", field, raw)
	}
	return nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

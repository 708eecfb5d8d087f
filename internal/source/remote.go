package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize 与文档服务 GET /files/ 的默认 limit 一致。
	DefaultPageSize = 10
	// MaxPageSize 是文档服务允许的 limit 上限。
	MaxPageSize = 100

	// maxPages 防止服务端分页异常（例如忽略 offset）时无限翻页。
	maxPages = 10000
)

// HTTPStatusError 表示文档服务返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// Remote 通过文档服务的分页接口读取已上传文件名：
//
//	GET <BaseURL>/files/?limit=<n>&offset=<k>
//	=> {"limit": n, "offset": k, "files": [{"filename": "a.pdf", ...}, ...]}
//
// 某一页返回的条目数少于 limit 即视为最后一页。
type Remote struct {
	BaseURL  string
	PageSize int
	Client   *http.Client
}

type filesPage struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Files  []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

// ListRemote 依次拉取所有分页并按服务端返回顺序拼接文件名。
func (r Remote) ListRemote(ctx context.Context) ([]string, error) {
	if r.Client == nil {
		return nil, errors.New("http client 不能为空")
	}
	base, err := url.Parse(strings.TrimSpace(r.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url 无效：%q", r.BaseURL)
	}
	endpoint := base.JoinPath("files") // JoinPath 会去掉尾部 '/'，下方补回
	endpoint.Path += "/"

	limit := clampPageSize(r.PageSize)
	names := make([]string, 0, limit)
	for page, offset := 0, 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(offset))
		u := *endpoint
		u.RawQuery = q.Encode()

		p, err := fetchPage(ctx, r.Client, u.String())
		if err != nil {
			return nil, err
		}
		for _, f := range p.Files {
			names = append(names, f.Filename)
		}
		if len(p.Files) < limit {
			return names, nil
		}
		offset += len(p.Files)
	}
	return nil, fmt.Errorf("分页超过 %d 页，放弃", maxPages)
}

func fetchPage(ctx context.Context, c *http.Client, pageURL string) (filesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return filesPage{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return filesPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return filesPage{}, &HTTPStatusError{URL: pageURL, StatusCode: resp.StatusCode, Body: string(b)}
	}

	var p filesPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return filesPage{}, fmt.Errorf("解析分页响应失败：%w", err)
	}
	return p, nil
}

func clampPageSize(n int) int {
	if n == 0 {
		return DefaultPageSize
	}
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

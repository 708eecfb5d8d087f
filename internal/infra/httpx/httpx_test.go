package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewClient_ProxyDisablesKeepAlive(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if !tr.Base.DisableKeepAlives || !tr.DisableKeepAlives {
		t.Fatalf("代理模式应禁用 keep-alive")
	}
}

func TestNewClient_NoProxyKeepsDefault(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr := c.Transport.(*Transport)
	if tr.Base.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if tr.Base.DisableKeepAlives {
		t.Fatalf("不期望禁用 keep-alive")
	}
}

func TestNewClient_InvalidProxyURL(t *testing.T) {
	if _, err := NewClient("http://[::1"); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestTransport_SetsUserAgent(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	c, err := NewClient("")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if got, _ := ua.Load().(string); got != UserAgent {
		t.Fatalf("期望 UA=%q，实际=%q", UserAgent, got)
	}
}

type flakyRT struct {
	calls atomic.Int32
	fail  int32
}

func (f *flakyRT) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) <= f.fail {
		return nil, errors.New("connection reset")
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestTransport_RetriesGetOnly(t *testing.T) {
	base := &http.Transport{}
	flaky := &flakyRT{fail: 2}
	base.RegisterProtocol("flaky", flaky)

	tr := &Transport{Base: base, RetryMax: 2}
	req, _ := http.NewRequest(http.MethodGet, "flaky://x/files/", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("两次失败后第三次应成功：%v", err)
	}
	resp.Body.Close()
	if n := flaky.calls.Load(); n != 3 {
		t.Fatalf("期望 3 次尝试，实际 %d", n)
	}

	flaky2 := &flakyRT{fail: 1}
	base2 := &http.Transport{}
	base2.RegisterProtocol("flaky", flaky2)
	tr2 := &Transport{Base: base2, RetryMax: 2}
	post, _ := http.NewRequest(http.MethodPost, "flaky://x/files/", http.NoBody)
	if _, err := tr2.RoundTrip(post); err == nil {
		t.Fatalf("POST 不应重试")
	}
	if n := flaky2.calls.Load(); n != 1 {
		t.Fatalf("POST 期望 1 次尝试，实际 %d", n)
	}
}

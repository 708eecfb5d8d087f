// Package server 通过 HTTP 提供文件卡片。
//
//	GET  /card     渲染已配置来源（?format=html|text|json）
//	POST /card     渲染请求体中的 props：{"files": [...]}
//	GET  /healthz  存活检查
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/filecard/internal/card"
	"github.com/John-Robertt/filecard/internal/domain"
	"github.com/John-Robertt/filecard/internal/source"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	src    source.Source
	format string
	log    logrus.FieldLogger
}

// New 构造 Server；format 是未指定 ?format 时的默认输出格式。
func New(src source.Source, format string, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if f, err := card.ParseFormat(format); err == nil {
		format = f
	} else {
		format = card.FormatHTML
	}
	return &Server{src: src, format: format, log: log}
}

// NewLogger 按 log_format（text|json）构造 logrus logger。
func NewLogger(w io.Writer, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if format == "json" {
		l.SetFormatter(new(logrus.JSONFormatter))
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /card", s.handleSourceCard)
	mux.HandleFunc("POST /card", s.handlePropsCard)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe 运行到 ctx 取消，然后在 shutdownTimeout 内优雅退出。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": addr, "source": s.src.Kind()}).Info("filecard server listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSourceCard(w http.ResponseWriter, r *http.Request) {
	format, ok := s.requestFormat(w, r)
	if !ok {
		return
	}

	files, err := s.src.Files(r.Context())
	if err != nil {
		// 来源失败不渲染卡片：空卡片会把“读取失败”伪装成“没有文件”。
		// 错误详情（可能含内部服务地址）只进日志。
		s.log.WithError(err).WithField("source", s.src.Kind()).Warn("source failed")
		http.Error(w, "读取文件列表失败", http.StatusBadGateway)
		return
	}
	s.writeCard(w, format, files)
}

func (s *Server) handlePropsCard(w http.ResponseWriter, r *http.Request) {
	format, ok := s.requestFormat(w, r)
	if !ok {
		return
	}

	files, err := source.ReadProps(http.MaxBytesReader(w, r.Body, source.MaxPropsBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			http.Error(w, "props 过大", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeCard(w, format, files)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) requestFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return s.format, true
	}
	f, err := card.ParseFormat(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return f, true
}

func (s *Server) writeCard(w http.ResponseWriter, format string, files domain.FileList) {
	// 先渲染到内存：模板失败时还能返回 500，而不是半截 200。
	var buf bytes.Buffer
	if err := card.Render(&buf, format, files); err != nil {
		s.log.WithError(err).Error("render failed")
		http.Error(w, "渲染失败", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", card.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(started).Round(time.Millisecond).String(),
		}).Info("request")
	})
}

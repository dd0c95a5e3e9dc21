// Package server 对外暴露助手的 HTTP 接口。
// 只有一个业务端点 POST /ai-assistant，鉴权走 Bearer 令牌。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/config"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

type Server struct {
	cfg   config.ServerConfig
	store *storage.Storage
	asst  *assistant.Assistant
}

func New(cfg config.ServerConfig, store *storage.Storage, asst *assistant.Assistant) *Server {
	return &Server{cfg: cfg, store: store, asst: asst}
}

// Handler 组装路由。业务端点套鉴权中间件，健康检查不需要。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /ai-assistant", s.requireToken(http.HandlerFunc(s.handleAssistant)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// Run 启动服务并阻塞，context 取消后优雅退出。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

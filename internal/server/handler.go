package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

const maxRequestBody = 1 << 20

type assistantRequest struct {
	Message             string               `json:"message"`
	PageContext         map[string]any       `json:"pageContext"`
	ConversationHistory []assistant.ChatTurn `json:"conversationHistory"`
}

type toolResultResponse struct {
	Type       string `json:"type"`
	ResultText string `json:"resultText"`
	Action     string `json:"action,omitempty"`
	Path       string `json:"path,omitempty"`
	Name       string `json:"name,omitempty"`
}

// requireToken 校验 Bearer 令牌并把用户身份注入请求 context。
// 令牌无效与令牌缺失都返回 401，不区分细节。
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || !storage.ValidTokenFormat(token) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, err := s.store.ResolveToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		ctx := assistant.WithUserID(r.Context(), userID)
		ctx = assistant.WithTraceID(ctx, uuid.New().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if !s.asst.Ready() {
		writeError(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return
	}

	outcome, err := s.asst.Run(r.Context(), assistant.Request{
		Message:     req.Message,
		PageContext: req.PageContext,
		History:     req.ConversationHistory,
	})
	if err != nil {
		writeRunError(w, err)
		return
	}

	if outcome.ToolResult != nil {
		writeJSON(w, http.StatusOK, toolResultResponse{
			Type:       "tool_result",
			ResultText: outcome.ToolResult.Result,
			Action:     outcome.ToolResult.Action,
			Path:       outcome.ToolResult.Path,
			Name:       outcome.ToolResult.Name,
		})
		return
	}
	streamText(w, outcome.ChatText)
}

// writeRunError 把流水线错误映射到 HTTP 状态码：
// 本地后端不可达是部署问题给 503，后端答非所问给 502。
func writeRunError(w http.ResponseWriter, err error) {
	var be *assistant.BackendError
	switch {
	case errors.Is(err, assistant.ErrNoBackend):
		writeError(w, http.StatusServiceUnavailable, "AI assistant is not configured")
	case errors.Is(err, assistant.ErrValidation):
		writeError(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, assistant.ErrAccessDenied):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &be):
		if be.Local && be.Unreachable {
			writeError(w, http.StatusServiceUnavailable, "Local AI backend is unreachable")
			return
		}
		writeError(w, http.StatusBadGateway, "AI backend request failed")
	case errors.Is(err, assistant.ErrNoUsableOutput):
		writeError(w, http.StatusBadGateway, "AI backend produced no usable response")
	default:
		fmt.Printf("[ERROR] Assistant request failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// streamText 以纯文本流式输出聊天回复。
func streamText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	const chunkSize = 512
	for len(text) > 0 {
		n := chunkSize
		if n > len(text) {
			n = len(text)
		}
		if _, err := w.Write([]byte(text[:n])); err != nil {
			return
		}
		text = text[n:]
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

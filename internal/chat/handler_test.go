package chat

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/roverchat/internal/generation"
)

func postChat(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestHandler_Chat_Success(t *testing.T) {
	p := newPipeline(Options{})
	h := NewHandler(p.svc)

	rec := postChat(h, `{"user_prompt":"What did you find today?","conversation_id":"c1","earth_date":"2012-08-07"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I found a rock.", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Len(t, p.historyOf(t, "c1"), 2)
}

func TestHandler_Chat_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `user_prompt=hi`},
		{"missing earth_date", `{"user_prompt":"hi","conversation_id":"c1"}`},
		{"empty conversation_id", `{"user_prompt":"hi","conversation_id":"","earth_date":"2012-08-07"}`},
		{"missing user_prompt", `{"conversation_id":"c1","earth_date":"2012-08-07"}`},
		{"empty body", ``},
		{"newline user_prompt", `{"user_prompt":"\n","conversation_id":"c1","earth_date":"2012-08-07"}`},
		{"spaces user_prompt", `{"user_prompt":"   ","conversation_id":"c1","earth_date":"2012-08-07"}`},
		{"blank conversation_id", `{"user_prompt":"hi","conversation_id":" \t","earth_date":"2012-08-07"}`},
		{"trailing garbage", `{"user_prompt":"hi","conversation_id":"c1","earth_date":"2012-08-07"}garbage`},
		{"two objects", `{"user_prompt":"hi","conversation_id":"c1","earth_date":"2012-08-07"}{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(Options{})
			h := NewHandler(p.svc)

			rec := postChat(h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid request body", rec.Body.String())
			assert.Zero(t, p.embedder.calls)
			assert.Zero(t, p.index.calls)
			assert.Zero(t, p.generator.calls)
		})
	}
}

func TestHandler_Chat_RateLimited(t *testing.T) {
	p := newPipeline(Options{})
	p.generator.err = fmt.Errorf("%w: quota", generation.ErrRateLimited)
	h := NewHandler(p.svc)

	rec := postChat(h, `{"user_prompt":"hi","conversation_id":"c1","earth_date":"2012-08-07"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", rec.Body.String())
	assert.Empty(t, p.historyOf(t, "c1"))
}

func TestHandler_Chat_InternalErrorsAreOpaque(t *testing.T) {
	p := newPipeline(Options{})
	p.index.err = errors.New("dial tcp 10.0.0.5:5432: connection refused")
	h := NewHandler(p.svc)

	rec := postChat(h, `{"user_prompt":"hi","conversation_id":"c1","earth_date":"2012-08-07"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", rec.Body.String())
}

func TestHandler_Chat_EmptyRetrievalFailIs500(t *testing.T) {
	p := newPipeline(Options{FailOnEmptyRetrieval: true})
	p.index.result = nil
	h := NewHandler(p.svc)

	rec := postChat(h, `{"user_prompt":"hi","conversation_id":"c1","earth_date":"2012-08-07"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", rec.Body.String())
}

package yandexvision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct {
	token       string
	invalidated atomic.Int32
}

func (s *stubTokens) Token(context.Context) (string, error) { return s.token, nil }
func (s *stubTokens) Invalidate()                           { s.invalidated.Add(1) }

func testClient(url string) *Client {
	return &Client{
		iamc:     &stubTokens{token: "iam-tok"},
		folderID: "b1folder",
		url:      url,
		httpc:    &http.Client{Timeout: time.Second},
	}
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}

func annotation(fullText string, blocks ...[]string) map[string]any {
	bs := make([]any, 0, len(blocks))
	for _, lines := range blocks {
		ls := make([]any, 0, len(lines))
		for _, l := range lines {
			ls = append(ls, map[string]any{"text": l})
		}
		bs = append(bs, map[string]any{"lines": ls})
	}
	return map[string]any{
		"result": map[string]any{
			"textAnnotation": map[string]any{"fullText": fullText, "blocks": bs},
		},
	}
}

func TestRecognize_FullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer iam-tok", r.Header.Get("Authorization"))
		assert.Equal(t, "b1folder", r.Header.Get("x-folder-id"))
		assert.Equal(t, "true", r.Header.Get("x-data-logging-enabled"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(jpegBytes), req.Content)
		assert.Equal(t, "JPEG", req.MimeType)
		assert.Equal(t, []string{"*"}, req.LanguageCodes)
		assert.Equal(t, "page", req.Model)

		_ = json.NewEncoder(w).Encode(annotation("Что такое дедлок?\n"))
	}))
	defer srv.Close()

	text, err := testClient(srv.URL).Recognize(context.Background(), jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, "Что такое дедлок?", text)
}

func TestRecognize_FallsBackToBlockLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(annotation("  ", []string{"первая строка", "вторая строка"}))
	}))
	defer srv.Close()

	text, err := testClient(srv.URL).Recognize(context.Background(), jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, "первая строка\nвторая строка", text)
}

func TestRecognize_NoAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Recognize(context.Background(), jpegBytes)
	assert.ErrorContains(t, err, "no text annotation")
}

func TestRecognize_EmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(annotation(""))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Recognize(context.Background(), jpegBytes)
	assert.ErrorContains(t, err, "empty text")
}

func TestRecognize_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Recognize(context.Background(), jpegBytes)
	assert.ErrorContains(t, err, "vision 400")
}

func TestRecognize_UnknownMimeDefaultsToJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "JPEG", req.MimeType)
		_ = json.NewEncoder(w).Encode(annotation("текст"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Recognize(context.Background(), []byte{0x00, 0x01})
	require.NoError(t, err)
}

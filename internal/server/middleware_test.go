package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestGzipRequestDecompress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GzipRequestDecompress())
	router.POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, string(body))
	})

	tests := []struct {
		name            string
		body            func(t *testing.T) []byte
		contentEncoding string
		want            struct {
			statusCode int
			body       string
		}
	}{
		{
			name:            "uncompressed request",
			body:            func(*testing.T) []byte { return []byte(`{"title":"Buy milk"}`) },
			contentEncoding: "",
			want: struct {
				statusCode int
				body       string
			}{statusCode: http.StatusOK, body: `{"title":"Buy milk"}`},
		},
		{
			name:            "gzip compressed request",
			body:            func(t *testing.T) []byte { return gzipBytes(t, `{"title":"Buy milk"}`) },
			contentEncoding: "gzip",
			want: struct {
				statusCode int
				body       string
			}{statusCode: http.StatusOK, body: `{"title":"Buy milk"}`},
		},
		{
			name:            "invalid gzip request",
			body:            func(*testing.T) []byte { return []byte("not gzip at all") },
			contentEncoding: "GZIP",
			want: struct {
				statusCode int
				body       string
			}{statusCode: http.StatusBadRequest, body: "invalid gzip request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(tt.body(t)))
			if tt.contentEncoding != "" {
				req.Header.Set("Content-Encoding", tt.contentEncoding)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want.body)
		})
	}
}

func TestGzipResponseCompress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	large := strings.Repeat("task ", 400)
	router := gin.New()
	router.Use(GzipResponseCompress())
	router.GET("/large", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": large}) })
	router.GET("/small", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "ok"}) })
	router.GET("/audio", func(c *gin.Context) { c.Data(http.StatusOK, "audio/mpeg", []byte(large)) })
	router.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name           string
		path           string
		acceptEncoding string
		want           struct {
			statusCode int
			gzipped    bool
		}
	}{
		{name: "large json compressed", path: "/large", acceptEncoding: "gzip, deflate", want: struct {
			statusCode int
			gzipped    bool
		}{http.StatusOK, true}},
		{name: "client without gzip", path: "/large", acceptEncoding: "", want: struct {
			statusCode int
			gzipped    bool
		}{http.StatusOK, false}},
		{name: "small json passes through", path: "/small", acceptEncoding: "gzip", want: struct {
			statusCode int
			gzipped    bool
		}{http.StatusOK, false}},
		{name: "binary audio passes through", path: "/audio", acceptEncoding: "gzip", want: struct {
			statusCode int
			gzipped    bool
		}{http.StatusOK, false}},
		{name: "no content", path: "/empty", acceptEncoding: "gzip", want: struct {
			statusCode int
			gzipped    bool
		}{http.StatusNoContent, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			if !tt.want.gzipped {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
				return
			}
			assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
			assert.Contains(t, w.Header().Get("Vary"), "Accept-Encoding")

			gr, err := gzip.NewReader(w.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(gr)
			require.NoError(t, err)
			assert.Contains(t, string(body), large)
		})
	}

	t.Run("small body is delivered intact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/small", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.JSONEq(t, `{"data":"ok"}`, w.Body.String())
	})
}

func TestIsCompressibleContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json; charset=utf-8", true},
		{"text/plain", true},
		{"TEXT/HTML", true},
		{"audio/mpeg", false},
		{"text/event-stream", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, isCompressibleContentType(tt.contentType))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/missing", func(c *gin.Context) {
		c.Set(ctxUserID, "user-7")
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/missing")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "user_id=user-7")
}

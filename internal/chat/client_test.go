package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsPayloadAndHeaders(t *testing.T) {
	var gotPath, gotMethod string
	var gotHeader http.Header
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotHeader = r.URL.Path, r.Method, r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	resp, err := client.Send(context.Background(), "persona-test", Payload{
		Query:          "What are the risks?",
		Persona:        "legal",
		Filename:       "sample_legal_contract.txt",
		ExpressiveMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "/api/gemini", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "synthetic", gotHeader.Get("X-VoiceDoc-Traffic"))
	assert.Equal(t, "persona-test", gotHeader.Get("X-VoiceDoc-Scenario"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))

	assert.Equal(t, "What are the risks?", gotBody["query"])
	assert.Equal(t, []interface{}{}, gotBody["history"], "history must be an empty array, not null")
	assert.Equal(t, "legal", gotBody["persona"])
	assert.Equal(t, "sample_legal_contract.txt", gotBody["filename"])
	assert.Equal(t, true, gotBody["expressiveMode"])
	assert.Equal(t, false, gotBody["forceError"])
}

func TestSend_DrainsStreamInChunks(t *testing.T) {
	reply := strings.Repeat("x", 3000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			_, _ = io.WriteString(w, reply[i*1000:(i+1)*1000])
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	resp, err := NewClientWithURL(server.URL).Send(context.Background(), "normal", Payload{Query: "q"})
	require.NoError(t, err)
	assert.EqualValues(t, 3000, resp.Bytes)
	assert.GreaterOrEqual(t, resp.Chunks, 3)
}

func TestSend_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to generate response"}`)
	}))
	defer server.Close()

	resp, err := NewClientWithURL(server.URL).Send(context.Background(), "error-demo", Payload{ForceError: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSend_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	resp, err := NewClientWithURL(url).Send(context.Background(), "warmup", Payload{Query: "hi"})
	require.Error(t, err)
	assert.Nil(t, resp)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "want *TransportError, got %T", err)
	assert.Equal(t, "send request", transportErr.Op)
	assert.Contains(t, err.Error(), "send request:")
}

func TestDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok","endpoint":"/api/gemini","method":"POST","requiredFields":["query","history"],"optionalFields":["context","filename"]}`)
	}))
	defer server.Close()

	d, err := NewClientWithURL(server.URL).Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", d.Status)
	assert.Equal(t, "POST", d.Method)
	assert.Equal(t, []string{"query", "history"}, d.RequiredFields)
}

func TestDescribe_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClientWithURL(server.URL).Describe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSend_LongStreamOutlivesReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 8; i++ {
			_, _ = io.WriteString(w, "tok ")
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(25 * time.Millisecond):
			}
		}
	}))
	defer server.Close()

	// The stream lasts ~200ms in total but never goes quiet for 100ms.
	client := NewClientWithURL(server.URL, WithTimeout(100*time.Millisecond))
	resp, err := client.Send(context.Background(), "burst-test", Payload{Query: "q", ExpressiveMode: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 32, resp.Bytes)
}

func TestSend_StalledStreamTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "tok ")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, WithTimeout(100*time.Millisecond))
	resp, err := client.Send(context.Background(), "normal", Payload{Query: "q"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, resp.Bytes)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "read stream", transportErr.Op)
	assert.Contains(t, err.Error(), "no data for 100ms")
}

func TestSend_SlowHeadersTimeOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, WithTimeout(100*time.Millisecond))
	_, err := client.Send(context.Background(), "normal", Payload{Query: "q"})
	require.Error(t, err)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "send request", transportErr.Op)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/arcanus/internal/agent"
	"github.com/normanking/arcanus/internal/config"
	"github.com/normanking/arcanus/internal/intent"
	"github.com/normanking/arcanus/internal/logging"
	"github.com/normanking/arcanus/internal/lore"
	"github.com/normanking/arcanus/internal/persona"
	"github.com/normanking/arcanus/internal/search"
	"github.com/normanking/arcanus/internal/session"
	"github.com/normanking/arcanus/internal/tts"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	return s.text, s.err
}
func (s *stubTranscriber) Configured() bool { return true }

type stubGenerator struct{}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "a mystical reply", nil
}
func (s *stubGenerator) Configured() bool { return true }
func (s *stubGenerator) Model() string    { return "gemini-1.5-flash" }

type stubSearcher struct{}

func (s *stubSearcher) Search(ctx context.Context, query string, numResults int) *search.Outcome {
	return &search.Outcome{Status: "success", Query: query}
}
func (s *stubSearcher) Configured() bool { return true }

// newTestServer wires a server around stub pipeline components and a
// Murf endpoint served by httptest.
func newTestServer(t *testing.T) (*Server, *stubTranscriber) {
	t.Helper()

	murf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/speech/generate":
			json.NewEncoder(w).Encode(map[string]string{"audioFile": "https://cdn.example/reply.mp3"})
		case "/v1/speech/voices":
			json.NewEncoder(w).Encode([]map[string]string{{"voiceId": "en-US-ken"}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(murf.Close)

	appLog, err := logging.New(&logging.Config{
		LogDir:     t.TempDir(),
		Level:      logging.LevelDebug,
		MaxHistory: 100,
		Console:    false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { appLog.Close() })

	wizard := persona.NewWizard()
	book, err := lore.NewBook()
	require.NoError(t, err)

	transcriber := &stubTranscriber{text: "hello wise one"}
	synthesizer := tts.NewClient(appLog.Component("tts"), &tts.Config{
		APIKey:  "test-key",
		BaseURL: murf.URL,
		Timeout: 5 * time.Second,
	}, wizard.VoiceSettings())
	searcher := search.NewClient(appLog.Component("search"), &search.Config{})

	orch := agent.NewOrchestrator(
		appLog.Zerolog(),
		wizard,
		transcriber,
		&stubGenerator{},
		synthesizer,
		&stubSearcher{},
		intent.NewClassifier(book, func() bool { return true }),
		session.NewStore(),
		session.NewTranscriptRing(10),
	)

	cfg := config.DefaultConfig()
	cfg.Server.MaxUploadBytes = 1 << 20

	return New(cfg, appLog, orch, transcriber, synthesizer, &stubGenerator{}, searcher), transcriber
}

func multipartAudio(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Arcanus the Wise", body["persona"])
	assert.NotEmpty(t, body["services"])
}

func TestAggregateStatus(t *testing.T) {
	assert.Equal(t, "healthy", aggregateStatus(map[string]bool{"stt": true, "llm": true}))
	assert.Equal(t, "degraded", aggregateStatus(map[string]bool{"stt": true, "llm": false}))
	assert.Equal(t, "unhealthy", aggregateStatus(map[string]bool{"stt": false, "llm": false}))
}

func TestChat(t *testing.T) {
	s, _ := newTestServer(t)

	buf, contentType := multipartAudio(t, []byte("fake audio"))
	rec := doRequest(t, s, http.MethodPost, "/agent/chat/s1", buf, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "hello wise one", body["transcript"])
	assert.Equal(t, "a mystical reply", body["reply"])
	assert.Equal(t, "https://cdn.example/reply.mp3", body["audio_url"])
}

func TestChatMissingFile(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/agent/chat/s1", strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	smaller := config.DefaultConfig()
	smaller.Server.MaxUploadBytes = 16
	s.ApplyConfig(smaller)

	buf, contentType := multipartAudio(t, bytes.Repeat([]byte("x"), 64))
	rec := doRequest(t, s, http.MethodPost, "/agent/chat/s1", buf, contentType)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHistoryLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	buf, contentType := multipartAudio(t, []byte("fake audio"))
	doRequest(t, s, http.MethodPost, "/agent/chat/s1", buf, contentType)

	rec := doRequest(t, s, http.MethodGet, "/agent/history/s1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["message_count"])

	rec = doRequest(t, s, http.MethodDelete, "/agent/history/s1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["cleared"])

	rec = doRequest(t, s, http.MethodDelete, "/agent/history/s1", nil, "")
	assert.Equal(t, false, decodeBody(t, rec)["cleared"])

	rec = doRequest(t, s, http.MethodGet, "/agent/history/s1", nil, "")
	assert.Equal(t, float64(0), decodeBody(t, rec)["message_count"])
}

func TestTranscribeFile(t *testing.T) {
	s, _ := newTestServer(t)

	buf, contentType := multipartAudio(t, []byte("fake audio"))
	rec := doRequest(t, s, http.MethodPost, "/transcribe/file", buf, contentType)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello wise one", decodeBody(t, rec)["transcript"])
}

func TestGenerateAudio(t *testing.T) {
	s, _ := newTestServer(t)

	payload := `{"text": "Greetings, seeker"}`
	rec := doRequest(t, s, http.MethodPost, "/generate-audio", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "https://cdn.example/reply.mp3", body["audio_url"])
	assert.Equal(t, "en-US-ken", body["voice_id"])
}

func TestGenerateAudioMissingText(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/generate-audio", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEcho(t *testing.T) {
	s, _ := newTestServer(t)

	buf, contentType := multipartAudio(t, []byte("fake audio"))
	rec := doRequest(t, s, http.MethodPost, "/tts/echo", buf, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "hello wise one", body["transcript"])
	assert.Equal(t, "https://cdn.example/reply.mp3", body["audio_url"])
}

func TestRecentTranscriptions(t *testing.T) {
	s, _ := newTestServer(t)

	buf, contentType := multipartAudio(t, []byte("fake audio"))
	doRequest(t, s, http.MethodPost, "/agent/chat/s1", buf, contentType)

	rec := doRequest(t, s, http.MethodGet, "/recent-transcriptions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
}

func TestSearchEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("missing query", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/search", strings.NewReader(`{}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unconfigured search soft-fails", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/search", strings.NewReader(`{"query": "eclipse"}`), "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
	})

	t.Run("status reports dormant crystal", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/search/status", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["configured"])
	})
}

func TestPersonaEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/persona/info", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Arcanus the Wise", body["name"])
	assert.NotEmpty(t, body["traits"])

	rec = doRequest(t, s, http.MethodGet, "/persona/greeting", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	greeting := decodeBody(t, rec)
	assert.NotEmpty(t, greeting["greeting"])
	assert.Equal(t, "https://cdn.example/reply.mp3", greeting["audio_url"])
	assert.Equal(t, "success", greeting["status"])

	rec = doRequest(t, s, http.MethodPost, "/persona/demo", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	demo := decodeBody(t, rec)
	responses, ok := demo["error_responses"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, responses, 5)
}

func TestDebugEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/debug/llm", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["configured"])
	assert.Equal(t, "gemini-1.5-flash", body["model"])

	rec = doRequest(t, s, http.MethodGet, "/debug/voices", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])

	rec = doRequest(t, s, http.MethodGet, "/debug/logs?limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAudioSocket(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/audio"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("audio")))
	var ack map[string]any
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "ack", ack["type"])
	assert.Equal(t, float64(5), ack["bytes"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(reply))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

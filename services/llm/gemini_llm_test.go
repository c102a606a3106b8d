package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiOK(text string) string {
	resp := geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

// scriptedGeminiServer answers each request from the script in order,
// recording which model each request targeted.
func scriptedGeminiServer(t *testing.T, script []func(w http.ResponseWriter)) (*httptest.Server, *[]string) {
	t.Helper()
	var models []string
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /v1beta/models/<model>:generateContent
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1beta/models/"), ":")
		models = append(models, parts[0])
		require.Less(t, i, len(script), "more requests than scripted")
		script[i](w)
		i++
	}))
	t.Cleanup(srv.Close)
	return srv, &models
}

func TestGeminiClient_FirstModelSucceeds(t *testing.T) {
	srv, models := scriptedGeminiServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.Write([]byte(geminiOK("hello"))) },
	})

	client := NewGeminiClient("test-key")
	client.baseURL = srv.URL

	result, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
	assert.Equal(t, []string{"gemini-2.0-flash"}, *models)
}

func TestGeminiClient_LadderAdvancesOnTransientFailure(t *testing.T) {
	srv, models := scriptedGeminiServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":500,"message":"internal error","status":"INTERNAL"}}`))
		},
		func(w http.ResponseWriter) { w.Write([]byte(geminiOK("second model answered"))) },
	})

	client := NewGeminiClient("test-key")
	client.baseURL = srv.URL

	result, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "second model answered", result)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash"}, *models)
}

func TestGeminiClient_AuthErrorStopsLadder(t *testing.T) {
	srv, models := scriptedGeminiServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
		},
	})

	client := NewGeminiClient("bad-key")
	client.baseURL = srv.URL

	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Len(t, *models, 1, "auth failure must not try further variants")
	assert.Equal(t, CategoryAuth, Classify(err, "gemini").Category)
}

func TestGeminiClient_RegionErrorStopsLadder(t *testing.T) {
	srv, models := scriptedGeminiServer(t, []func(w http.ResponseWriter){
		func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"User location is not supported for the API use.","status":"FAILED_PRECONDITION"}}`))
		},
	})

	client := NewGeminiClient("test-key")
	client.baseURL = srv.URL

	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Len(t, *models, 1)
	assert.Equal(t, CategoryRegion, Classify(err, "gemini").Category)
}

func TestGeminiClient_AllVariantsExhausted(t *testing.T) {
	fail := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`))
	}
	srv, models := scriptedGeminiServer(t, []func(w http.ResponseWriter){fail, fail, fail})

	client := NewGeminiClient("test-key")
	client.baseURL = srv.URL

	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Len(t, *models, len(defaultGeminiModels), "every variant gets one try")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestGeminiClient_SafetyBlock(t *testing.T) {
	blocked, _ := json.Marshal(geminiResponse{
		PromptFeedback: &geminiPromptFeedback{BlockReason: "PROHIBITED_CONTENT"},
	})
	handler := func(w http.ResponseWriter) { w.Write(blocked) }
	srv, _ := scriptedGeminiServer(t, []func(w http.ResponseWriter){handler, handler, handler})

	client := NewGeminiClient("test-key")
	client.baseURL = srv.URL

	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Equal(t, CategorySafety, Classify(err, "gemini").Category)
}

func TestGeminiClient_SendsKeyHeaderAndParams(t *testing.T) {
	var gotKey string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(geminiOK("ok")))
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClient("secret-key")
	client.baseURL = srv.URL

	temp := float32(0.3)
	maxTokens := 256
	_, err := client.Generate(context.Background(), "hello there", GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Stop:        []string{"END"},
	})
	require.NoError(t, err)

	assert.Equal(t, "secret-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "hello there", gotReq.Contents[0].Parts[0].Text)
	require.NotNil(t, gotReq.GenerationConfig)
	assert.Equal(t, &temp, gotReq.GenerationConfig.Temperature)
	assert.Equal(t, &maxTokens, gotReq.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, []string{"END"}, gotReq.GenerationConfig.StopSequences)
}

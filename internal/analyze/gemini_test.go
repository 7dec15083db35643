package analyze

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:        baseURL,
		Model:          "gemini-2.0-flash",
		APIKey:         "test-key",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	}, testLogger())
}

func modelReply(text string) generateResponse {
	return generateResponse{
		Candidates: []candidate{{Content: content{Parts: []part{{Text: text}}}}},
	}
}

func TestAnalyze_ParsesJudgment(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewEncoder(w).Encode(modelReply(`{"verifiable": true, "main_claim": "urnas foram fraudadas", "category": "Fraude Eleitoral", "risk_score": 9, "rationale": "alegação sem fonte"}`))
	}))
	defer srv.Close()

	analysis, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.NoError(t, err)
	require.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	require.Equal(t, "test-key", gotKey)
	require.True(t, analysis.Verifiable)
	require.Equal(t, "urnas foram fraudadas", analysis.MainClaim)
	require.Equal(t, "Fraude Eleitoral", analysis.Category)
	require.Equal(t, 9, analysis.RiskScore)
	require.Equal(t, "alegação sem fonte", analysis.Rationale)
}

func TestAnalyze_StripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(modelReply("```json\n{\"verifiable\": false, \"risk_score\": 1}\n```"))
	}))
	defer srv.Close()

	analysis, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.NoError(t, err)
	require.False(t, analysis.Verifiable)
	require.Equal(t, 1, analysis.RiskScore)
}

func TestAnalyze_UnparsableReplyNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(modelReply("I cannot evaluate this post."))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.Error(t, err)
	require.Contains(t, err.Error(), "parse analysis")
	require.Equal(t, 1, calls)
}

func TestAnalyze_RetriesTransportFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(modelReply(`{"verifiable": true, "risk_score": 4}`))
	}))
	defer srv.Close()

	analysis, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, 4, analysis.RiskScore)
}

func TestAnalyze_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "after 3 attempts")
}

func TestAnalyze_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Analyze(context.Background(), "post text")

	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, stripFences(tt.in))
	}
}

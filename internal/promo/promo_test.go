package promo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyflow/models"
)

var testEvent = models.Event{
	ID:       "evt1",
	Name:     "Rooftop Rave",
	Date:     "2026-09-12",
	Location: "Tel Aviv",
	Price:    120,
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Rooftop Rave")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "🎉 Get ready!"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("secret", "gemini-2.5-flash").WithBaseURL(srv.URL)

	text := NewService(client).Blurb(context.Background(), testEvent)
	assert.Equal(t, "🎉 Get ready!", text)
}

func TestBlurbFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("secret", "gemini-2.5-flash").WithBaseURL(srv.URL)

	text := NewService(client).Blurb(context.Background(), testEvent)
	assert.Contains(t, text, "Rooftop Rave")
	assert.Contains(t, text, "2026-09-12")
}

func TestBlurbFallsBackOnEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("secret", "gemini-2.5-flash").WithBaseURL(srv.URL)

	text := NewService(client).Blurb(context.Background(), testEvent)
	assert.Contains(t, text, "Rooftop Rave")
}

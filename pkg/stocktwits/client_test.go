package stocktwits

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2/streams/symbol/TSLA.json", r.URL.Path)
		w.Write([]byte(`{
			"response": {"status": 200},
			"messages": [
				{"id": 101, "body": "bullish on robotaxi", "created_at": "2026-08-29T15:04:05Z",
				 "entities": {"sentiment": {"basic": "Bullish"}}},
				{"id": 102, "body": "not sure about margins", "created_at": "2026-08-29T16:00:00Z",
				 "entities": {"sentiment": null}}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	messages, err := c.Stream(context.Background(), "tsla")
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "101", messages[0].ID)
	assert.Equal(t, "Bullish", messages[0].Sentiment)
	require.NotNil(t, messages[0].CreatedAt)
	assert.Equal(t, 2026, messages[0].CreatedAt.Year())
	assert.Empty(t, messages[1].Sentiment)
}

func TestStreamNonOKStatusInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"status": 404}, "messages": []}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	messages, err := c.Stream(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStreamHTTP404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	messages, err := c.Stream(context.Background(), "GONE")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

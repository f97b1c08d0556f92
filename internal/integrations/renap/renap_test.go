package renap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(&config.Config{
		RenapURL:      server.URL,
		RenapAPIKey:   "test-key",
		CloudFrontURL: "https://cdn.example.com/",
	}, log)
}

func TestLookupRewritesPictureURL(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1234567890101", r.URL.Query().Get("dpi"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"status":  200,
			"message": "ok",
			"data": map[string]string{
				"dpi":        "1234567890101",
				"first_name": "Maria",
				"picture":    "https://funtec-uploads.s3.amazonaws.com/pictures/maria.jpg",
			},
		})
	})

	record, err := client.Lookup(context.Background(), "1234567890101")
	require.NoError(t, err)
	assert.Equal(t, "Maria", record.FirstName)
	assert.Equal(t, "https://cdn.example.com/pictures/maria.jpg", record.Picture)
}

func TestLookupFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"status":  404,
			"message": "not found",
		})
	})

	_, err := client.Lookup(context.Background(), "0000000000000")
	assert.Error(t, err)
}

func TestLookupBadStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), "1234567890101")
	assert.Error(t, err)
}

package renap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/models"
	"github.com/sirupsen/logrus"
)

// uploadsHost is the raw storage host the registry serves pictures from;
// responses rewrite it to the CDN host.
const uploadsHost = "https://funtec-uploads.s3.amazonaws.com/"

// Client handles lookups against the national identity registry
type Client struct {
	url           string
	apiKey        string
	cloudFrontURL string
	client        *http.Client
	log           *logrus.Logger
}

// NewClient initializes a new registry client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:           cfg.RenapURL,
		apiKey:        cfg.RenapAPIKey,
		cloudFrontURL: cfg.CloudFrontURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type lookupResponse struct {
	Success bool                   `json:"success"`
	Data    *models.IdentityRecord `json:"data"`
	Status  int                    `json:"status"`
	Message string                 `json:"message"`
	Error   *string                `json:"error"`
}

// Lookup retrieves the demographic record for a DPI
func (c *Client) Lookup(ctx context.Context, dpi string) (*models.IdentityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?dpi="+url.QueryEscape(dpi), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	if !payload.Success || payload.Data == nil {
		return nil, fmt.Errorf("registry lookup failed: %s", payload.Message)
	}

	record := payload.Data
	if c.cloudFrontURL != "" {
		record.Picture = strings.Replace(record.Picture, uploadsHost, c.cloudFrontURL, 1)
	}

	c.log.Debugf("Registry lookup for DPI %s succeeded", dpi)
	return record, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"bizmanager/internal/caching"
	"bizmanager/internal/models"
	"bizmanager/internal/observability/metrics"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBodyLength = 512

// IdentityProviderService keeps the identity provider's copy of a user
// profile in sync with ours.
type IdentityProviderService interface {
	UpdateEmail(ctx context.Context, ref models.IdentityRef, email models.Email) error
}

type IdentityProviderConfig struct {
	BaseURL      string // e.g. https://tenant.example.com
	ClientID     string
	ClientSecret string
	Audience     string // management API audience
	Timeout      time.Duration
}

type identityProviderClient struct {
	cfg        IdentityProviderConfig
	httpClient *http.Client
	cache      caching.CacheService
	logger     *slog.Logger
}

// NewIdentityProviderService creates the management API client. cache may be
// nil, in which case a token is requested for every call.
func NewIdentityProviderService(cfg IdentityProviderConfig, cache caching.CacheService, logger *slog.Logger) IdentityProviderService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &identityProviderClient{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		logger:     logger,
	}
}

type managementTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
}

type managementTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *identityProviderClient) UpdateEmail(ctx context.Context, ref models.IdentityRef, email models.Email) error {
	token, err := c.managementToken(ctx)
	if err != nil {
		metrics.ObserveIdentityProviderRequest("update_email", "token_error")
		return err
	}

	endpoint := "/api/v2/users/" + url.PathEscape(ref.String())
	resp, err := c.makeRequest(ctx, http.MethodPatch, endpoint, token, map[string]string{"email": email.String()})
	if err != nil {
		metrics.ObserveIdentityProviderRequest("update_email", "network_error")
		return models.NewTransientError("identity provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.evictToken(ctx)
		}
		metrics.ObserveIdentityProviderRequest("update_email", "rejected")
		return models.NewTransientError(fmt.Sprintf("identity provider returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body)), nil)
	}

	metrics.ObserveIdentityProviderRequest("update_email", "success")
	c.logger.InfoContext(ctx, "identity provider email updated", "identity_ref", ref.String())
	return nil
}

// managementToken returns a client-credentials token, from cache when one is
// still valid.
func (c *identityProviderClient) managementToken(ctx context.Context) (string, error) {
	if c.cfg.ClientID == "" {
		return "", models.NewConfigurationMissingError("IDP_CLIENT_ID")
	}
	if c.cfg.ClientSecret == "" {
		return "", models.NewConfigurationMissingError("IDP_CLIENT_SECRET")
	}

	if c.cache != nil {
		token, err := c.cache.GetManagementToken(ctx, c.cfg.Audience)
		if err != nil {
			c.logger.WarnContext(ctx, "management token cache read failed", "error", err)
		} else if token != "" {
			return token, nil
		}
	}

	payload := managementTokenRequest{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Audience:     c.cfg.Audience,
		GrantType:    "client_credentials",
	}
	resp, err := c.makeRequest(ctx, http.MethodPost, "/oauth/token", "", payload)
	if err != nil {
		return "", models.NewTransientError("identity provider token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", models.NewTransientError(fmt.Sprintf("identity provider token endpoint returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body)), nil)
	}

	var tokenResp managementTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", models.NewTransientError("failed to decode token response", err)
	}
	if tokenResp.AccessToken == "" {
		return "", models.NewTransientError("token response carried no access_token", nil)
	}

	// refresh a minute early
	if ttl := time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute; c.cache != nil && ttl > 0 {
		if err := c.cache.SetManagementToken(ctx, c.cfg.Audience, tokenResp.AccessToken, ttl); err != nil {
			c.logger.WarnContext(ctx, "management token cache write failed", "error", err)
		}
	}
	return tokenResp.AccessToken, nil
}

func (c *identityProviderClient) evictToken(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.DeleteManagementToken(ctx, c.cfg.Audience); err != nil {
		c.logger.WarnContext(ctx, "management token eviction failed", "error", err)
	}
}

// makeRequest performs a JSON request against the identity provider.
func (c *identityProviderClient) makeRequest(ctx context.Context, method, endpoint, token string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyLength))
	return string(data)
}

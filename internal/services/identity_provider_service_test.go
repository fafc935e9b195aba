package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bizmanager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeIdentityProvider struct {
	tokenCalls  atomic.Int32
	patchCalls  atomic.Int32
	patchStatus int
	hangOnEmail string
	lastPath    string
	lastEmail   string
	lastAuth    string
}

func (f *fakeIdentityProvider) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credentials", body["grant_type"])
		assert.Equal(t, "client-id", body["client_id"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "mgmt-token", "expires_in": 86400})
	})
	mux.HandleFunc("PATCH /api/v2/users/{ref}", func(w http.ResponseWriter, r *http.Request) {
		f.patchCalls.Add(1)
		f.lastPath = r.URL.EscapedPath()
		f.lastAuth = r.Header.Get("Authorization")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastEmail = body["email"]
		if f.hangOnEmail != "" && body["email"] == f.hangOnEmail {
			<-r.Context().Done()
			return
		}
		status := f.patchStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	})
	return mux
}

func newIdentityProviderForTest(t *testing.T, fake *fakeIdentityProvider, cache *MockCacheService) (IdentityProviderService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	cfg := IdentityProviderConfig{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Audience:     srv.URL + "/api/v2/",
		Timeout:      2 * time.Second,
	}
	if cache == nil {
		return NewIdentityProviderService(cfg, nil, discardLogger()), srv
	}
	return NewIdentityProviderService(cfg, cache, discardLogger()), srv
}

func testRefAndEmail(t *testing.T) (models.IdentityRef, models.Email) {
	ref, err := models.NewIdentityRef(testIdentityRef)
	require.NoError(t, err)
	return ref, mustEmail(t, "jane.doe@x.com")
}

func TestIdentityProvider_UpdateEmail(t *testing.T) {
	fake := &fakeIdentityProvider{}
	idp, _ := newIdentityProviderForTest(t, fake, nil)
	ref, email := testRefAndEmail(t)

	err := idp.UpdateEmail(context.Background(), ref, email)

	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	assert.Equal(t, "/api/v2/users/auth0%7C5f1b2c3d4e5f6a7b8c9d0e1f", fake.lastPath)
	assert.Equal(t, "Bearer mgmt-token", fake.lastAuth)
	assert.Equal(t, "jane.doe@x.com", fake.lastEmail)
}

func TestIdentityProvider_Non2xxIsTransient(t *testing.T) {
	fake := &fakeIdentityProvider{patchStatus: http.StatusBadRequest}
	idp, _ := newIdentityProviderForTest(t, fake, nil)
	ref, email := testRefAndEmail(t)

	err := idp.UpdateEmail(context.Background(), ref, email)

	require.ErrorIs(t, err, models.ErrTransient)
	assert.Contains(t, err.Error(), "400")
}

func TestIdentityProvider_MissingCredentials(t *testing.T) {
	idp := NewIdentityProviderService(IdentityProviderConfig{BaseURL: "http://127.0.0.1:1"}, nil, discardLogger())
	ref, email := testRefAndEmail(t)

	err := idp.UpdateEmail(context.Background(), ref, email)

	var e *models.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, models.KindConfigurationMissing, e.Kind)
	assert.Equal(t, "IDP_CLIENT_ID", e.Field)
}

func TestIdentityProvider_UnreachableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	idp := NewIdentityProviderService(IdentityProviderConfig{
		BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret", Timeout: time.Second,
	}, nil, discardLogger())
	ref, email := testRefAndEmail(t)

	err := idp.UpdateEmail(context.Background(), ref, email)

	assert.ErrorIs(t, err, models.ErrTransient)
}

func TestIdentityProvider_UsesCachedToken(t *testing.T) {
	fake := &fakeIdentityProvider{}
	cache := new(MockCacheService)
	idp, srv := newIdentityProviderForTest(t, fake, cache)
	cache.On("GetManagementToken", mock.Anything, srv.URL+"/api/v2/").Return("cached-token", nil)
	ref, email := testRefAndEmail(t)

	require.NoError(t, idp.UpdateEmail(context.Background(), ref, email))

	assert.Equal(t, int32(0), fake.tokenCalls.Load())
	assert.Equal(t, "Bearer cached-token", fake.lastAuth)
	cache.AssertExpectations(t)
}

func TestIdentityProvider_CachesFreshTokenAndEvictsOn401(t *testing.T) {
	fake := &fakeIdentityProvider{patchStatus: http.StatusUnauthorized}
	cache := new(MockCacheService)
	idp, srv := newIdentityProviderForTest(t, fake, cache)
	audience := srv.URL + "/api/v2/"
	cache.On("GetManagementToken", mock.Anything, audience).Return("", nil)
	cache.On("SetManagementToken", mock.Anything, audience, "mgmt-token", 86400*time.Second-time.Minute).Return(nil).Once()
	cache.On("DeleteManagementToken", mock.Anything, audience).Return(nil).Once()
	ref, email := testRefAndEmail(t)

	err := idp.UpdateEmail(context.Background(), ref, email)

	assert.ErrorIs(t, err, models.ErrTransient)
	cache.AssertExpectations(t)
}

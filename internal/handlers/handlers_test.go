package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/testdb"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubProvider struct {
	exchangeErr error
}

func (p *stubProvider) AuthorizationURL(redirectURI, state string) string {
	q := url.Values{"redirect_uri": {redirectURI}, "state": {state}}
	return "https://oauth.vk.test/authorize?" + q.Encode()
}

func (p *stubProvider) ExchangeCode(_ context.Context, _, _ string) (*services.TokenGrant, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &services.TokenGrant{ProviderUserID: "555", Email: "vk@example.com", AccessToken: "vk-token"}, nil
}

func (p *stubProvider) FetchProfile(_ context.Context, _, _ string) (*services.ProviderProfile, error) {
	return &services.ProviderProfile{DisplayName: "Vasya Pupkin"}, nil
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	codec    *services.TokenCodec
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testdb.Open(t)
	codec := services.NewTokenCodec("handler-test-secret", time.Hour)
	provider := &stubProvider{}

	authService := services.NewAuthService(
		codec,
		services.NewRefreshTokenService(db, 24*time.Hour),
		services.NewIdentityService(db),
		services.NewVerificationService(db, services.LogMailer{}, 10*time.Minute),
		services.NewEmailProofCodec("handler-test-secret", 30*time.Minute),
		provider,
		services.NewSignedStateStore("state-secret", 10*time.Minute),
		true,
	)

	app := fiber.New()
	routes.Setup(app, codec,
		handlers.NewAuthHandler(authService, "http://localhost:5173", "/auth/vk/callback", true),
		handlers.NewProfileHandler(services.NewProfileService(db)),
		handlers.NewHealthHandler(db),
	)
	return &testServer{app: app, db: db, codec: codec, provider: provider}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestVKLogin_RedirectURIFromOrigin(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/auth/vk/login", "", nil)
	require.Equal(t, http.StatusOK, status)
	redirect, err := url.Parse(body["redirect_url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/auth/vk/callback", redirect.Query().Get("redirect_uri"))
	assert.Equal(t, body["state"], redirect.Query().Get("state"))

	_, body = s.do(t, http.MethodGet, "/api/auth/vk/login", "", map[string]string{"Origin": "https://app.example.com/"})
	redirect, err = url.Parse(body["redirect_url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/auth/vk/callback", redirect.Query().Get("redirect_uri"))
}

func TestVKCallback_FullLogin(t *testing.T) {
	s := newTestServer(t)

	_, login := s.do(t, http.MethodGet, "/api/auth/vk/login", "", nil)
	state := login["state"].(string)

	status, body := s.do(t, http.MethodGet, "/api/auth/vk/callback?code=abc&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["refresh_token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Vasya Pupkin", user["name"])

	status, profile := s.do(t, http.MethodGet, "/api/profile", "", bearer(body["access_token"].(string)))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "vk@example.com", profile["email"])
}

func TestVKCallback_ProviderErrorIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	s.provider.exchangeErr = &services.ExchangeError{Code: "access_denied"}

	_, login := s.do(t, http.MethodGet, "/api/auth/vk/login", "", nil)
	state := login["state"].(string)

	status, body := s.do(t, http.MethodGet, "/api/auth/vk/callback?code=abc&state="+url.QueryEscape(state), "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "access_denied", body["message"])

	var users int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestVKCallback_MissingCodeOrState(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/auth/vk/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no authorization code", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/auth/vk/callback?code=abc&state=forged", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid oauth state", body["message"])
}

func TestEmailFlow(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/auth/email/register",
		`{"email":"reg@example.com","password":"pw-123456","name":"Reg"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email is not verified", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/email/send-code", `{"email":"Reg@Example.com"}`, nil)
	require.Equal(t, http.StatusOK, status)
	code := body["code_for_demo"].(string)
	assert.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	status, body = s.do(t, http.MethodPost, "/api/auth/email/verify-code", `{"email":"reg@example.com","code":"`+wrong+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid code", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/email/verify-code", `{"email":"reg@example.com","code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "reg@example.com", body["email"])
	proof, _ := body["verification_token"].(string)
	require.NotEmpty(t, proof)

	status, body = s.do(t, http.MethodPost, "/api/auth/email/verify-code", `{"email":"reg@example.com","code":"`+code+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Code expired", body["message"])

	// Another client cannot ride on the verification without the proof.
	status, body = s.do(t, http.MethodPost, "/api/auth/email/register",
		`{"email":"reg@example.com","password":"pw-123456","name":"Reg"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email is not verified", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/email/register",
		`{"email":"reg@example.com","password":"pw-123456","name":"Reg","verification_token":"`+proof+`"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, body = s.do(t, http.MethodPost, "/api/auth/email/register",
		`{"email":"reg@example.com","password":"wrong-password","verification_token":"`+proof+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", body["message"])
}

func TestEmail_BadInput(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/auth/email/verify-code", `{"email":"none@example.com","code":"123456"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Code not found", body["message"])

	for _, raw := range []string{"not-an-email", "Bob <bob@example.com>", "bob@example.com (x)"} {
		status, body = s.do(t, http.MethodPost, "/api/auth/email/send-code", `{"email":"`+raw+`"}`, nil)
		assert.Equal(t, http.StatusBadRequest, status, raw)
		assert.Equal(t, "Invalid email", body["message"], raw)
	}

	status, body = s.do(t, http.MethodPost, "/api/auth/email/send-code", `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	email := "member@example.com"
	user := models.User{Email: &email, Name: "Member"}
	require.NoError(t, s.db.Create(&user).Error)
	token, err := s.codec.Issue(user.ID)
	require.NoError(t, err)
	auth := bearer(token)

	status, body := s.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["message"])

	status, _ = s.do(t, http.MethodPut, "/api/profile", `{"name":"Renamed","birthday":"1991-07-01"}`, auth)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPut, "/api/profile", `{"birthday":"07/01/1991"}`, auth)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "birthday must be YYYY-MM-DD", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/profile", "", map[string]string{"X-Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["name"])
	assert.Equal(t, "1991-07-01", body["birthday"])

	status, body = s.do(t, http.MethodPost, "/api/premium", "", auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pro_analytics", body["premium_type"])

	status, body = s.do(t, http.MethodPost, "/api/premium", `{"plan":"forever"}`, auth)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid plan", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/premium", "", auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["is_premium"])

	status, _ = s.do(t, http.MethodPost, "/api/statistics", `{"action_type":"view"}`, auth)
	assert.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, http.MethodGet, "/api/statistics", "", auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_actions"])
}

func TestProtectedRoutes_DeletedUser(t *testing.T) {
	s := newTestServer(t)
	token, err := s.codec.Issue(98765)
	require.NoError(t, err)

	status, body := s.do(t, http.MethodGet, "/api/profile", "", bearer(token))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

func TestProtectedRoutes_ExpiredToken(t *testing.T) {
	s := newTestServer(t)
	expired, err := services.NewTokenCodec("handler-test-secret", -time.Minute).Issue(1)
	require.NoError(t, err)

	status, body := s.do(t, http.MethodGet, "/api/statistics", "", bearer(expired))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized: token expired", body["message"])
}

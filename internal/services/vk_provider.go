package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var ErrExchangeFailed = errors.New("oauth exchange failed")

// ExchangeError carries the provider's error code. It matches ErrExchangeFailed.
type ExchangeError struct {
	Code string
	Err  error
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return "oauth exchange failed: " + e.Err.Error()
	}
	return ErrExchangeFailed.Error()
}

func (e *ExchangeError) Is(target error) bool { return target == ErrExchangeFailed }

func (e *ExchangeError) Unwrap() error { return e.Err }

// VKConfig holds the VK application credentials and endpoints.
type VKConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	APIVersion   string
	Timeout      time.Duration
}

// TokenGrant is the result of a code-for-token exchange.
type TokenGrant struct {
	ProviderUserID string
	Email          string
	AccessToken    string
}

type ProviderProfile struct {
	DisplayName string
	AvatarURL   string
}

// VKProvider talks to VK's OAuth and users.get endpoints.
type VKProvider struct {
	cfg        VKConfig
	httpClient *http.Client
}

func NewVKProvider(cfg VKConfig) *VKProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &VKProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *VKProvider) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.cfg.AuthURL,
			TokenURL:  p.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL is where the browser is sent to approve access.
func (p *VKProvider) AuthorizationURL(redirectURI, state string) string {
	return p.oauthConfig(redirectURI).AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for an access token. VK returns
// user_id and, when granted, email alongside the token.
func (p *VKProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig(redirectURI).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode != "" {
			return nil, &ExchangeError{Code: re.ErrorCode, Err: err}
		}
		return nil, &ExchangeError{Err: err}
	}

	userID := extraString(token.Extra("user_id"))
	if userID == "" {
		return nil, &ExchangeError{Err: errors.New("token response missing user_id")}
	}

	return &TokenGrant{
		ProviderUserID: userID,
		Email:          extraString(token.Extra("email")),
		AccessToken:    token.AccessToken,
	}, nil
}

type vkUsersResponse struct {
	Response []struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Photo200  string `json:"photo_200"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_msg"`
	} `json:"error"`
}

// FetchProfile loads display name and avatar. Missing fields become empty strings.
func (p *VKProvider) FetchProfile(ctx context.Context, providerUserID, accessToken string) (*ProviderProfile, error) {
	params := url.Values{
		"user_ids":     {providerUserID},
		"fields":       {"photo_200"},
		"access_token": {accessToken},
		"v":            {p.cfg.APIVersion},
	}
	endpoint := strings.TrimRight(p.cfg.APIURL, "/") + "/users.get?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Err: fmt.Errorf("users.get returned status %d", resp.StatusCode)}
	}

	var parsed vkUsersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("decode users.get: %w", err)}
	}
	if parsed.Error != nil {
		return nil, &ExchangeError{Code: parsed.Error.Message, Err: fmt.Errorf("users.get error %d", parsed.Error.Code)}
	}

	profile := &ProviderProfile{}
	if len(parsed.Response) > 0 {
		u := parsed.Response[0]
		profile.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
		profile.AvatarURL = u.Photo200
	}
	return profile, nil
}

func extraString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

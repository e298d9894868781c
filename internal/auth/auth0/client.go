package auth0

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// SiteAccessFallback resolves site access from local membership data.
// It is consulted when the provider profile carries no site metadata,
// which is a resilience measure against incomplete provider data, not
// an error condition.
type SiteAccessFallback interface {
	SiteIDsByEmail(ctx context.Context, email string) ([]uint, error)
}

// Client is an Auth0-style identity provider adapter. It authenticates
// credentials against the provider's token endpoint, reads the profile
// from /userinfo and validates provider tokens against the published
// JWKS.
type Client struct {
	domain       string
	clientID     string
	clientSecret string
	audience     string
	httpClient   *http.Client
	jwks         *jwksCache
	fallback     SiteAccessFallback
}

func NewClient(domain, clientID, clientSecret, audience string, fallback SiteAccessFallback) *Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Client{
		domain:       domain,
		clientID:     clientID,
		clientSecret: clientSecret,
		audience:     audience,
		httpClient:   httpClient,
		jwks:         newJWKSCache(fmt.Sprintf("https://%s/.well-known/jwks.json", domain), time.Hour, httpClient),
		fallback:     fallback,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

type userProfile struct {
	Sub         string `json:"sub"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	Email       string `json:"email"`
	Picture     string `json:"picture"`
	AppMetadata struct {
		SiteAccess []uint `json:"site_access"`
	} `json:"app_metadata"`
}

// Authenticate performs a password-grant credential exchange. Bad
// credentials surface the provider's message verbatim as an
// authentication error.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*auth.Identity, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {username},
		"password":      {password},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"audience":      {c.audience},
		"scope":         {"openid profile email offline_access"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("https://%s/oauth/token", c.domain),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("identity provider unreachable: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var te tokenError
		if err := json.NewDecoder(resp.Body).Decode(&te); err != nil || te.Description == "" {
			return nil, domain.NewAuthenticationError("authentication failed")
		}
		return nil, domain.NewAuthenticationError(te.Description)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("decode token response: %w", err))
	}

	profile, err := c.userInfo(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}

	siteIDs, err := c.SiteAccess(ctx, profile)
	if err != nil {
		return nil, err
	}

	return &auth.Identity{
		ProviderID:   profile.Sub,
		Username:     profile.Nickname,
		Name:         profile.Name,
		Email:        profile.Email,
		Picture:      profile.Picture,
		SiteIDs:      siteIDs,
		AccessToken:  tr.AccessToken,
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

func (c *Client) userInfo(ctx context.Context, accessToken string) (*userProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("https://%s/userinfo", c.domain), nil)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("userinfo request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewAuthenticationError("could not fetch user profile")
	}

	var profile userProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("decode userinfo: %w", err))
	}
	return &profile, nil
}

// SiteAccess reads site access from provider profile metadata, falling
// back to a local membership lookup keyed by email when the metadata is
// absent.
func (c *Client) SiteAccess(ctx context.Context, profile *userProfile) ([]uint, error) {
	if len(profile.AppMetadata.SiteAccess) > 0 {
		return profile.AppMetadata.SiteAccess, nil
	}
	if c.fallback == nil || profile.Email == "" {
		return []uint{}, nil
	}
	siteIDs, err := c.fallback.SiteIDsByEmail(ctx, profile.Email)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return siteIDs, nil
}

// ValidateToken verifies a provider-issued RS256 token against the
// cached JWKS and returns its claims.
func (c *Client) ValidateToken(ctx context.Context, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return c.jwks.getKey(ctx, kid)
	})
	if err != nil || !token.Valid {
		return nil, domain.NewAuthenticationError("invalid provider token")
	}
	return claims, nil
}

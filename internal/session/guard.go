// ABOUTME: Session guard gating access to authenticated surfaces
// ABOUTME: Decides Authorized/Unauthorized locally, refreshing expired tokens

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// State is the guard's resolution for the current caller
type State int

const (
	StateUnknown State = iota
	StateAuthorized
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Claims are the fields the guard reads from the access token. The token is
// decoded locally and never verified; verification is the server's job.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Guard owns the credential pair and the refresh flow. All failure kinds
// (malformed token, network error, non-2xx, bad response body) collapse to
// StateUnauthorized; callers never see the distinction.
type Guard struct {
	store      *Store
	baseURL    string
	httpClient *http.Client
	sf         singleflight.Group
}

// NewGuard creates a guard over the given store and API base URL
func NewGuard(store *Store, baseURL string, timeout time.Duration) *Guard {
	return &Guard{
		store:   store,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Authorize resolves the tri-state session decision:
//   - no stored access token: refresh if a refresh token exists, else Unauthorized
//   - malformed access token: same as missing, the refresh path is tried first
//   - expired access token: exactly one refresh attempt
//   - unexpired access token: Authorized with zero network calls
//
// Concurrent calls share a single in-flight refresh; a second caller awaits
// the first's result instead of issuing a duplicate against an
// already-rotated refresh token.
func (g *Guard) Authorize(ctx context.Context) (State, error) {
	creds, err := g.store.Load()
	if err != nil {
		return StateUnauthorized, err
	}

	if creds.Access == "" {
		if creds.Refresh == "" {
			return StateUnauthorized, nil
		}
		return g.refresh(ctx, creds.Refresh)
	}

	exp, err := tokenExpiry(creds.Access)
	if err != nil {
		slog.Warn("Access token decode failed", "error", err)
		if creds.Refresh == "" {
			if clearErr := g.store.Clear(); clearErr != nil {
				slog.Error("Failed to clear credentials", "error", clearErr)
			}
			return StateUnauthorized, nil
		}
		return g.refresh(ctx, creds.Refresh)
	}

	if !exp.After(time.Now()) {
		return g.refresh(ctx, creds.Refresh)
	}

	return StateAuthorized, nil
}

// Token implements the API client's TokenSource. It re-runs the authorize
// decision so every outbound request carries a live credential.
func (g *Guard) Token(ctx context.Context) (string, error) {
	state, err := g.Authorize(ctx)
	if err != nil {
		return "", err
	}
	if state != StateAuthorized {
		return "", fmt.Errorf("not logged in")
	}

	creds, err := g.store.Load()
	if err != nil {
		return "", err
	}
	return creds.Access, nil
}

// Login exchanges a username and password for a credential pair and stores it
func (g *Guard) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := g.postJSON(ctx, "/api/token/", body, &pair); err != nil {
		return err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return fmt.Errorf("token endpoint returned an incomplete pair")
	}
	return g.store.Save(Credentials{Access: pair.Access, Refresh: pair.Refresh})
}

// Logout clears the stored credential pair unconditionally
func (g *Guard) Logout() error {
	return g.store.Clear()
}

// CurrentClaims decodes the stored access token without any network call.
// Useful for whoami-style introspection.
func (g *Guard) CurrentClaims() (*Claims, error) {
	creds, err := g.store.Load()
	if err != nil {
		return nil, err
	}
	if creds.Access == "" {
		return nil, fmt.Errorf("not logged in")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(creds.Access, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	return claims, nil
}

// refresh exchanges the refresh token for a new access token. The pair is
// replaced in a single store write, never left half-updated. Any failure
// clears the stored pair and resolves Unauthorized.
func (g *Guard) refresh(ctx context.Context, refreshToken string) (State, error) {
	if refreshToken == "" {
		return StateUnauthorized, nil
	}

	v, err, _ := g.sf.Do("refresh", func() (interface{}, error) {
		return g.doRefresh(ctx, refreshToken), nil
	})
	if err != nil {
		return StateUnauthorized, nil
	}
	return v.(State), nil
}

func (g *Guard) doRefresh(ctx context.Context, refreshToken string) State {
	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	err := g.postJSON(ctx, "/api/token/refresh/", map[string]string{"refresh": refreshToken}, &resp)
	if err != nil || resp.Access == "" {
		if err != nil {
			slog.Warn("Token refresh failed", "error", err)
		} else {
			slog.Warn("Token refresh returned no access token")
		}
		if clearErr := g.store.Clear(); clearErr != nil {
			slog.Error("Failed to clear credentials", "error", clearErr)
		}
		return StateUnauthorized
	}

	creds := Credentials{Access: resp.Access, Refresh: refreshToken}
	// Servers that rotate refresh tokens return a replacement
	if resp.Refresh != "" {
		creds.Refresh = resp.Refresh
	}
	if err := g.store.Save(creds); err != nil {
		slog.Error("Failed to store refreshed credentials", "error", err)
		return StateUnauthorized
	}
	return StateAuthorized
}

// postJSON sends an unauthenticated JSON POST to the token endpoints
func (g *Guard) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to backend at %s: %w", g.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
			return fmt.Errorf("%s", body.Detail)
		}
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// tokenExpiry decodes the token locally and returns its expiry claim
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return exp.Time, nil
}

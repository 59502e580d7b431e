// ABOUTME: Tests for the session guard decision procedure
// ABOUTME: Verifies refresh counts, failure collapse, and concurrency dedup

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":    7,
		"token_type": "access",
		"exp":        exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// refreshServer counts refresh calls and hands out the given access token
type refreshServer struct {
	*httptest.Server
	calls  atomic.Int64
	access string
	status int
	delay  time.Duration
}

func newRefreshServer(t *testing.T, access string, status int) *refreshServer {
	t.Helper()
	rs := &refreshServer{access: access, status: status}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token/refresh/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rs.calls.Add(1)
		if rs.delay > 0 {
			time.Sleep(rs.delay)
		}

		var body struct {
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
			t.Errorf("refresh request missing refresh token")
		}

		if rs.status != http.StatusOK {
			w.WriteHeader(rs.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access": rs.access})
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestGuard(t *testing.T, baseURL string, creds Credentials) (*Guard, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if creds != (Credentials{}) {
		if err := store.Save(creds); err != nil {
			t.Fatalf("failed to seed credentials: %v", err)
		}
	}
	return NewGuard(store, baseURL, 5*time.Second), store
}

func TestGuard_Authorize_ValidToken_NoNetworkCalls(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	access := makeToken(t, time.Now().Add(time.Hour))
	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: access, Refresh: "refresh-token"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateAuthorized {
		t.Errorf("state = %v, want %v", state, StateAuthorized)
	}
	if got := srv.calls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestGuard_Authorize_ExpiredToken_RefreshesExactlyOnce(t *testing.T) {
	newAccess := makeToken(t, time.Now().Add(time.Hour))
	srv := newRefreshServer(t, newAccess, http.StatusOK)

	expired := makeToken(t, time.Now().Add(-time.Minute))
	guard, store := newTestGuard(t, srv.URL, Credentials{Access: expired, Refresh: "refresh-token"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateAuthorized {
		t.Errorf("state = %v, want %v", state, StateAuthorized)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds.Access != newAccess {
		t.Error("access token was not replaced after refresh")
	}
	if creds.Refresh != "refresh-token" {
		t.Error("refresh token should survive a non-rotating refresh")
	}
}

func TestGuard_Authorize_TokenAtExpiry_Refreshes(t *testing.T) {
	newAccess := makeToken(t, time.Now().Add(time.Hour))
	srv := newRefreshServer(t, newAccess, http.StatusOK)

	// exp == now counts as expired
	atNow := makeToken(t, time.Now())
	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: atNow, Refresh: "refresh-token"})

	if state, _ := guard.Authorize(context.Background()); state != StateAuthorized {
		t.Errorf("state = %v, want %v", state, StateAuthorized)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestGuard_Authorize_RefreshFailure_ClearsCredentials(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusInternalServerError)

	expired := makeToken(t, time.Now().Add(-time.Minute))
	guard, store := newTestGuard(t, srv.URL, Credentials{Access: expired, Refresh: "refresh-token"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateUnauthorized {
		t.Errorf("state = %v, want %v", state, StateUnauthorized)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds != (Credentials{}) {
		t.Errorf("credentials not cleared after refresh failure: %+v", creds)
	}
}

func TestGuard_Authorize_MalformedAccess_TriesRefreshFirst(t *testing.T) {
	newAccess := makeToken(t, time.Now().Add(time.Hour))
	srv := newRefreshServer(t, newAccess, http.StatusOK)

	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: "not-a-jwt", Refresh: "refresh-token"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateAuthorized {
		t.Errorf("malformed access with valid refresh should resolve via refresh, got %v", state)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestGuard_Authorize_MalformedAccess_NoRefreshToken(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	guard, store := newTestGuard(t, srv.URL, Credentials{Access: "not-a-jwt"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateUnauthorized {
		t.Errorf("state = %v, want %v", state, StateUnauthorized)
	}
	if got := srv.calls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}

	creds, _ := store.Load()
	if creds != (Credentials{}) {
		t.Error("unrecoverable credentials should be cleared")
	}
}

func TestGuard_Authorize_NoCredentials(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	guard, _ := newTestGuard(t, srv.URL, Credentials{})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateUnauthorized {
		t.Errorf("state = %v, want %v", state, StateUnauthorized)
	}
	if got := srv.calls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestGuard_Authorize_MissingAccess_WithRefresh(t *testing.T) {
	newAccess := makeToken(t, time.Now().Add(time.Hour))
	srv := newRefreshServer(t, newAccess, http.StatusOK)

	guard, _ := newTestGuard(t, srv.URL, Credentials{Refresh: "refresh-token"})

	state, err := guard.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if state != StateAuthorized {
		t.Errorf("state = %v, want %v", state, StateAuthorized)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestGuard_Authorize_Concurrent_SingleRefreshInFlight(t *testing.T) {
	newAccess := makeToken(t, time.Now().Add(time.Hour))
	srv := newRefreshServer(t, newAccess, http.StatusOK)
	srv.delay = 100 * time.Millisecond

	expired := makeToken(t, time.Now().Add(-time.Minute))
	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: expired, Refresh: "refresh-token"})

	const callers = 5
	var wg sync.WaitGroup
	states := make([]State, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i], _ = guard.Authorize(context.Background())
		}(i)
	}
	wg.Wait()

	if got := srv.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1 (concurrent callers must share one refresh)", got)
	}
	for i, s := range states {
		if s != StateAuthorized {
			t.Errorf("caller %d: state = %v, want %v", i, s, StateAuthorized)
		}
	}
}

func TestGuard_Token(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	access := makeToken(t, time.Now().Add(time.Hour))
	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: access, Refresh: "refresh-token"})

	token, err := guard.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != access {
		t.Error("Token did not return the stored access token")
	}
}

func TestGuard_Token_NotLoggedIn(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	guard, _ := newTestGuard(t, srv.URL, Credentials{})

	if _, err := guard.Token(context.Background()); err == nil {
		t.Error("Token should fail when not logged in")
	}
}

func TestGuard_Logout(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	access := makeToken(t, time.Now().Add(time.Hour))
	guard, store := newTestGuard(t, srv.URL, Credentials{Access: access, Refresh: "refresh-token"})

	if err := guard.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds != (Credentials{}) {
		t.Errorf("credentials remain after logout: %+v", creds)
	}

	if state, _ := guard.Authorize(context.Background()); state != StateUnauthorized {
		t.Errorf("state after logout = %v, want %v", state, StateUnauthorized)
	}
}

func TestGuard_CurrentClaims(t *testing.T) {
	srv := newRefreshServer(t, "", http.StatusOK)
	access := makeToken(t, time.Now().Add(time.Hour))
	guard, _ := newTestGuard(t, srv.URL, Credentials{Access: access})

	claims, err := guard.CurrentClaims()
	if err != nil {
		t.Fatalf("CurrentClaims failed: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}
}

func TestTokenExpiry_Malformed(t *testing.T) {
	if _, err := tokenExpiry("garbage"); err == nil {
		t.Error("tokenExpiry should fail on a malformed token")
	}
}

func TestGuard_Login_StoresPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token/" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username != "alice" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access": "new-access", "refresh": "new-refresh"})
	}))
	defer srv.Close()

	guard, store := newTestGuard(t, srv.URL, Credentials{})

	if err := guard.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds.Access != "new-access" || creds.Refresh != "new-refresh" {
		t.Errorf("stored pair = %+v, want new-access/new-refresh", creds)
	}
}

func TestGuard_Login_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found with the given credentials"})
	}))
	defer srv.Close()

	guard, store := newTestGuard(t, srv.URL, Credentials{})

	err := guard.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("Login should fail with bad credentials")
	}
	if err.Error() != "No active account found with the given credentials" {
		t.Errorf("error = %q, want the server detail verbatim", err.Error())
	}

	creds, _ := store.Load()
	if creds != (Credentials{}) {
		t.Error("no credentials should be stored after a failed login")
	}
}

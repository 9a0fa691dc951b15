package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestContext holds per-scenario state: the named accounts in play and the
// last response received from the server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string

	client   *http.Client
	accounts map[string]string
	actor    string

	LastStatus int
	LastBody   []byte
}

// NewTestContext reads the target server from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    os.Getenv("ASSETD_E2E_URL"),
		SigningKey: envOr("ASSETD_E2E_JWT_KEY", "dev-secret-key-change-in-production"),
		Issuer:     envOr("ASSETD_E2E_JWT_ISSUER", "assetd"),
		Audience:   envOr("ASSETD_E2E_JWT_AUDIENCE", "assetd"),
		client:     &http.Client{Timeout: 10 * time.Second},
		accounts:   make(map[string]string),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears scenario state between scenarios.
func (tc *TestContext) Reset() {
	tc.accounts = make(map[string]string)
	tc.actor = ""
	tc.LastStatus = 0
	tc.LastBody = nil
}

// Account returns the account id for name, minting a fresh one the first
// time a name is seen so scenarios never share state on the server.
func (tc *TestContext) Account(name string) string {
	if acct, ok := tc.accounts[name]; ok {
		return acct
	}
	acct := uuid.NewString()
	tc.accounts[name] = acct
	return acct
}

// ActAs makes subsequent authenticated requests come from name.
func (tc *TestContext) ActAs(name string) {
	tc.actor = name
}

func (tc *TestContext) token() (string, error) {
	if tc.actor == "" {
		return "", nil
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tc.Account(tc.actor),
		Issuer:    tc.Issuer,
		Audience:  jwt.ClaimStrings{tc.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
}

// POST sends body as JSON with the current actor's token.
func (tc *TestContext) POST(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	return tc.do(ctx, http.MethodPost, path, reader, true)
}

// GET sends an unauthenticated request.
func (tc *TestContext) GET(ctx context.Context, path string) error {
	return tc.do(ctx, http.MethodGet, path, nil, false)
}

func (tc *TestContext) do(ctx context.Context, method, path string, body io.Reader, authed bool) error {
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := tc.token()
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.LastStatus = resp.StatusCode
	tc.LastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Status() int { return tc.LastStatus }

func (tc *TestContext) Body() []byte { return tc.LastBody }

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(tc.LastBody, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.LastBody)
	}
	return v, nil
}

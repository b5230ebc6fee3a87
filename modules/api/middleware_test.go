package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	domain "github.com/tyumu/Roamloid/domain/user"
)

// mockAuthPort implements auth.AuthPort for testing
type mockAuthPort struct {
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*domain.User, error)
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func validatingMock(wantToken string) *mockAuthPort {
	return &mockAuthPort{
		validateTokenFunc: func(_ context.Context, token string) (*domain.Claims, error) {
			if token == wantToken {
				return &domain.Claims{UserID: "user-1", Username: "alice"}, nil
			}
			return nil, errors.New("token validation failed")
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		authHeader     string
		mockAuth       *mockAuthPort
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing token",
			target:         "/protected",
			authHeader:     "",
			mockAuth:       &mockAuthPort{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authentication required."`,
		},
		{
			name:           "non-bearer header",
			target:         "/protected",
			authHeader:     "Basic dXNlcjpwYXNz",
			mockAuth:       &mockAuthPort{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authentication required."`,
		},
		{
			name:           "invalid token",
			target:         "/protected",
			authHeader:     "Bearer bad-token",
			mockAuth:       validatingMock("good-token"),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Invalid or expired session."`,
		},
		{
			name:           "valid bearer token",
			target:         "/protected",
			authHeader:     "Bearer good-token",
			mockAuth:       validatingMock("good-token"),
			expectedStatus: http.StatusOK,
			expectedBody:   `"user-1"`,
		},
		{
			name:           "valid query token",
			target:         "/protected?token=good-token",
			authHeader:     "",
			mockAuth:       validatingMock("good-token"),
			expectedStatus: http.StatusOK,
			expectedBody:   `"user-1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/protected", AuthMiddleware(tt.mockAuth), func(c *fiber.Ctx) error {
				claims := c.Locals(UserContextKey).(*domain.Claims)
				return c.JSON(ok(map[string]string{"user_id": claims.UserID}))
			})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body %q does not contain %q", string(body), tt.expectedBody)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	m := &APIModule{}
	app := fiber.New()
	app.Get("/api/health", m.healthHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, want := range []string{`"ok":true`, `"status":"ok"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body %q does not contain %q", string(body), want)
		}
	}
}

package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhetc/pos-ai/internal/core/security"
)

const secret = "test-jwt-secret"

func bearer(t *testing.T, storeID uuid.UUID, perms ...string) string {
	t.Helper()
	tok, err := security.IssueToken(secret, uuid.New(), storeID, perms, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestProtected(t *testing.T) {
	app := fiber.New()
	app.Get("/me", Protected(secret), func(c *fiber.Ctx) error {
		return c.SendString(ClaimsFrom(c).StoreID.String())
	})

	store := uuid.New()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", bearer(t, store), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, store.String(), string(body))
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	app := fiber.New()
	app.Post("/pay", Protected(secret), RequirePermission(security.PermPaymentsCreate), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/pay", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), security.PermPaymentsUpdate))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/pay", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), security.PermPaymentsCreate))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

type storedResponse struct {
	status int
	body   []byte
}

type memIdempotency struct {
	mu   sync.Mutex
	rows map[string]storedResponse
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{rows: map[string]storedResponse{}}
}

func (m *memIdempotency) Lookup(_ context.Context, storeID uuid.UUID, key string) (int, []byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[storeID.String()+"/"+key]
	return row.status, row.body, ok, nil
}

func (m *memIdempotency) Save(_ context.Context, storeID uuid.UUID, key string, status int, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeID.String() + "/" + key
	if _, ok := m.rows[k]; ok {
		return nil
	}
	m.rows[k] = storedResponse{status, body}
	return nil
}

func TestIdempotencyReplaysPerStore(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	app := fiber.New()
	app.Post("/create", Protected(secret), Idempotency(store), func(c *fiber.Ctx) error {
		calls++
		return c.Status(http.StatusCreated).JSON(fiber.Map{"n": calls})
	})

	storeA := uuid.New()
	send := func(auth, key string) (*http.Response, string) {
		req := httptest.NewRequest(http.MethodPost, "/create", nil)
		req.Header.Set("Authorization", auth)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	authA := bearer(t, storeA)
	first, firstBody := send(authA, "k-1")
	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Empty(t, first.Header.Get("X-Idempotency-Hit"))

	second, secondBody := send(authA, "k-1")
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("X-Idempotency-Hit"))
	assert.Equal(t, firstBody, secondBody)
	assert.Equal(t, 1, calls)

	_, otherBody := send(bearer(t, uuid.New()), "k-1")
	assert.NotEqual(t, firstBody, otherBody)
	assert.Equal(t, 2, calls)

	send(authA, "")
	assert.Equal(t, 3, calls)
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	app := fiber.New()
	app.Post("/create", Protected(secret), Idempotency(store), func(c *fiber.Ctx) error {
		calls++
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "gateway unavailable"})
	})

	auth := bearer(t, uuid.New())
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/create", nil)
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "k-2")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyScopedToRoute(t *testing.T) {
	store := newMemIdempotency()
	app := fiber.New()
	app.Post("/vnpay/create", Protected(secret), Idempotency(store), func(c *fiber.Ctx) error {
		return c.Status(http.StatusCreated).JSON(fiber.Map{"gateway": "vnpay"})
	})
	app.Post("/momo/create", Protected(secret), Idempotency(store), func(c *fiber.Ctx) error {
		return c.Status(http.StatusCreated).JSON(fiber.Map{"gateway": "momo"})
	})

	auth := bearer(t, uuid.New())
	send := func(path string) (*http.Response, string) {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "till-7-0001")
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	_, vnpayBody := send("/vnpay/create")
	resp, momoBody := send("/momo/create")
	assert.Empty(t, resp.Header.Get("X-Idempotency-Hit"))
	assert.JSONEq(t, `{"gateway":"vnpay"}`, vnpayBody)
	assert.JSONEq(t, `{"gateway":"momo"}`, momoBody)

	resp, replay := send("/momo/create")
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Hit"))
	assert.JSONEq(t, `{"gateway":"momo"}`, replay)
}

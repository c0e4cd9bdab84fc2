package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/push"
	"github.com/NgocVuuu/film-sub001/validators"
)

type stubSubscriptionRepo struct {
	subs    []models.PushSubscription
	deleted []string
}

func (s *stubSubscriptionRepo) Subscribe(_ context.Context, sub *models.PushSubscription) error {
	for i := range s.subs {
		if s.subs[i].Endpoint == sub.Endpoint {
			s.subs[i] = *sub
			return nil
		}
	}
	s.subs = append(s.subs, *sub)
	return nil
}

func (s *stubSubscriptionRepo) ListByUser(_ context.Context, userID uint) ([]models.PushSubscription, error) {
	var out []models.PushSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubSubscriptionRepo) DeleteByEndpoint(_ context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	for i, sub := range s.subs {
		if sub.Endpoint == endpoint {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubSubscriptionRepo) DeleteByUser(context.Context, uint) (int64, error)      { return 0, nil }
func (s *stubSubscriptionRepo) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }
func (s *stubSubscriptionRepo) EnsureIndexes(context.Context) error                    { return nil }

func newTestContext(t *testing.T, method, path, body string, claims *models.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("user", claims)
	}
	return c, rec
}

var enabledPushCfg = push.Config{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}

const subscribeBody = `{
	"subscription": {
		"endpoint": "https://push.example/endpoint-1",
		"keys": {"p256dh": "key-material", "auth": "auth-secret"}
	},
	"userAgent": "Mozilla/5.0"
}`

func TestSubscribeRequiresPremium(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)

	claims := &models.JwtCustomClaims{UserID: 7, IsPremium: false}
	c, rec := newTestContext(t, http.MethodPost, "/notifications/push/subscribe", subscribeBody, claims)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"requiresPremium":true`)
	// No record may be created for a rejected caller.
	assert.Empty(t, repo.subs)
}

func TestSubscribeCreatesSubscription(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)

	claims := &models.JwtCustomClaims{UserID: 7, IsPremium: true}
	c, rec := newTestContext(t, http.MethodPost, "/notifications/push/subscribe", subscribeBody, claims)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.subs, 1)
	assert.Equal(t, uint(7), repo.subs[0].UserID)
	assert.Equal(t, "https://push.example/endpoint-1", repo.subs[0].Endpoint)
	assert.Equal(t, "key-material", repo.subs[0].P256dh)
}

func TestSubscribeIsIdempotentPerEndpoint(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)
	claims := &models.JwtCustomClaims{UserID: 7, IsPremium: true}

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(t, http.MethodPost, "/notifications/push/subscribe", subscribeBody, claims)
		require.NoError(t, h.Subscribe(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Len(t, repo.subs, 1)
}

func TestSubscribeRejectsMissingKeyMaterial(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)
	claims := &models.JwtCustomClaims{UserID: 7, IsPremium: true}

	body := `{"subscription": {"endpoint": "https://push.example/e", "keys": {}}}`
	c, _ := newTestContext(t, http.MethodPost, "/notifications/push/subscribe", body, claims)

	err := h.Subscribe(c)
	require.Error(t, err)
	assert.Empty(t, repo.subs)
}

func TestUnsubscribeRemovesEndpoint(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	repo.Subscribe(context.Background(), &models.PushSubscription{UserID: 7, Endpoint: "https://push.example/e1"})
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)
	claims := &models.JwtCustomClaims{UserID: 7, IsPremium: true}

	c, rec := newTestContext(t, http.MethodDelete, "/notifications/push/unsubscribe",
		`{"endpoint": "https://push.example/e1"}`, claims)

	require.NoError(t, h.Unsubscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.subs)
}

func TestUnsubscribeUnknownEndpointSucceeds(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	h := NewPushHandler(repo, PremiumEntitlements{}, enabledPushCfg, nil)
	claims := &models.JwtCustomClaims{UserID: 7}

	c, rec := newTestContext(t, http.MethodDelete, "/notifications/push/unsubscribe",
		`{"endpoint": "https://push.example/never-seen"}`, claims)

	require.NoError(t, h.Unsubscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPublicKey(t *testing.T) {
	h := NewPushHandler(&stubSubscriptionRepo{}, PremiumEntitlements{}, enabledPushCfg, nil)
	c, rec := newTestContext(t, http.MethodGet, "/notifications/push/public-key", "", &models.JwtCustomClaims{UserID: 7})

	require.NoError(t, h.GetPublicKey(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"publicKey":"pub"`)
}

func TestGetPublicKeyWhenDisabled(t *testing.T) {
	h := NewPushHandler(&stubSubscriptionRepo{}, PremiumEntitlements{}, push.Config{}, nil)
	c, _ := newTestContext(t, http.MethodGet, "/notifications/push/public-key", "", &models.JwtCustomClaims{UserID: 7})

	err := h.GetPublicKey(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	h := NewPushHandler(&stubSubscriptionRepo{}, PremiumEntitlements{}, enabledPushCfg, nil)
	claims := &models.JwtCustomClaims{UserID: 7, IsAdmin: false}

	c, _ := newTestContext(t, http.MethodPost, "/admin/notifications/broadcast",
		`{"userIds": [1, 2], "content": "hi"}`, claims)

	err := h.Broadcast(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

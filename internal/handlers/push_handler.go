package handlers

import (
	"net/http"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/notify"
	"github.com/NgocVuuu/film-sub001/internal/push"
	"github.com/NgocVuuu/film-sub001/internal/repositories"
	"github.com/labstack/echo/v4"
)

// Entitlements decides whether a user may register for push delivery. The
// gating policy itself lives outside this subsystem.
type Entitlements interface {
	CanUsePush(claims *models.JwtCustomClaims) bool
}

// PremiumEntitlements gates push delivery on the premium claim.
type PremiumEntitlements struct{}

func (PremiumEntitlements) CanUsePush(claims *models.JwtCustomClaims) bool {
	return claims != nil && claims.IsPremium
}

// PushHandler handles push subscription and broadcast HTTP requests
type PushHandler struct {
	subscriptionRepository repositories.PushSubscriptionRepository
	entitlements           Entitlements
	cfg                    push.Config
	broadcaster            *notify.Broadcaster
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(subRepo repositories.PushSubscriptionRepository, entitlements Entitlements, cfg push.Config, broadcaster *notify.Broadcaster) *PushHandler {
	return &PushHandler{
		subscriptionRepository: subRepo,
		entitlements:           entitlements,
		cfg:                    cfg,
		broadcaster:            broadcaster,
	}
}

// RegisterPushRoutes registers push subscription routes
func (h *PushHandler) RegisterPushRoutes(g *echo.Group) {
	g.GET("/notifications/push/public-key", h.GetPublicKey)
	g.POST("/notifications/push/subscribe", h.Subscribe)
	g.DELETE("/notifications/push/unsubscribe", h.Unsubscribe)
	g.POST("/admin/notifications/broadcast", h.Broadcast)
}

// GetPublicKey returns the VAPID public key clients need to subscribe
func (h *PushHandler) GetPublicKey(c echo.Context) error {
	if !h.cfg.Enabled() {
		return echo.NewHTTPError(http.StatusNotFound, "Push delivery is not configured")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"publicKey": h.cfg.VAPIDPublicKey,
		},
	})
}

// Subscribe registers a push endpoint for the authenticated user. Repeated
// calls with the same endpoint stay idempotent.
func (h *PushHandler) Subscribe(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil || claims.UserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if !h.entitlements.CanUsePush(claims) {
		// Structured failure: the client must undo its local subscription attempt.
		return c.JSON(http.StatusForbidden, echo.Map{
			"success":         false,
			"requiresPremium": true,
			"message":         "Push notifications require an active premium subscription",
		})
	}

	var req models.SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Subscription key material is required")
	}

	sub := &models.PushSubscription{
		UserID:    claims.UserID,
		Endpoint:  req.Subscription.Endpoint,
		P256dh:    req.Subscription.Keys.P256dh,
		Auth:      req.Subscription.Keys.Auth,
		UserAgent: req.UserAgent,
	}

	if err := h.subscriptionRepository.Subscribe(c.Request().Context(), sub); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Unsubscribe removes a push endpoint; a missing endpoint is not an error
func (h *PushHandler) Unsubscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UnsubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.subscriptionRepository.DeleteByEndpoint(c.Request().Context(), req.Endpoint); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Broadcast fans a notification out to many recipients (admin only)
func (h *PushHandler) Broadcast(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil || claims.UserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !claims.IsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
	}

	var req models.BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Type == "" {
		req.Type = models.NotificationTypeAnnouncement
	}

	report := h.broadcaster.NotifyMany(c.Request().Context(), req.UserIDs, req.Content, req.Link, req.Type)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": report})
}

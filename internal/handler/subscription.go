package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// SubscriptionHandler serves the caller's subscription state.  Every
// route runs behind Authenticate.
type SubscriptionHandler struct {
	Entitlement *service.EntitlementService
}

func NewSubscriptionHandler(ent *service.EntitlementService) *SubscriptionHandler {
	return &SubscriptionHandler{Entitlement: ent}
}

type subscribeReq struct {
	PlanType string `json:"planType"`
}

type currentResp struct {
	HasActiveSubscription bool                `json:"hasActiveSubscription"`
	Subscription          *model.Subscription `json:"subscription"`
}

// Current: GET /subscriptions/current
func (h *SubscriptionHandler) Current(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sub, err := h.Entitlement.GetActiveSubscription(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, currentResp{HasActiveSubscription: sub != nil, Subscription: sub})
}

// History: GET /subscriptions/history
func (h *SubscriptionHandler) History(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	subs, err := h.Entitlement.History(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"subscriptions": subs})
}

// Subscribe: POST /subscriptions {planType}
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	var req subscribeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sub, err := h.Entitlement.Subscribe(ctx, u.ID, req.PlanType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "subscription created", "subscription": sub})
}

// Cancel: PUT /subscriptions/cancel/:id
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Entitlement.Cancel(ctx, u.ID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "subscription cancelled"})
}

// CheckAccess: GET /subscriptions/check-access/:bookId
func (h *SubscriptionHandler) CheckAccess(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Entitlement.CheckAccess(ctx, u, c.Param("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

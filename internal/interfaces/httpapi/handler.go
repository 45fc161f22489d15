package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
	"github.com/Victor-armando18/service-clearance/pkg/shipping"
)

const maxDocumentBytes = 10 << 20

type Handler struct {
	svc       interfaces.ClearanceFacade
	advisor   interfaces.AdvisorFacade
	analytics interfaces.AnalyticsFacade
	logger    *zap.Logger
}

func NewHandler(svc interfaces.ClearanceFacade, advisor interfaces.AdvisorFacade, analytics interfaces.AnalyticsFacade, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, advisor: advisor, analytics: analytics, logger: logger}
}

// NewServer builds the echo instance with middleware and every route registered.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	h.Register(e)
	return e
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/tariff/quote", h.quoteTariff)
	e.POST("/shipping/quote", h.quoteShipping)
	e.POST("/penalty/quote", h.quotePenalty)

	e.POST("/shipments", h.createShipment)
	e.GET("/shipments/:id", h.getShipment)
	e.PATCH("/shipments/:id", h.updateDetails)
	e.POST("/shipments/:id/events/:event", h.handleEvent)
	e.GET("/shipments/:id/shipping-charges", h.shippingCharges)
	e.GET("/shipments/:id/duty-charges", h.dutyCharges)
	e.POST("/shipments/:id/payment-order", h.paymentOrder)
	e.PUT("/shipments/:id/documents/:name", h.uploadDocument)
	e.DELETE("/shipments/:id/documents/:name", h.removeDocument)

	e.POST("/hs-code/suggest", h.suggestHSCode)
	e.GET("/documents/required", h.requiredDocuments)
	e.POST("/risk/analyze", h.analyzeRisk)

	e.GET("/analytics/summary", h.analyticsSummary)
}

// --- Cotações ---

func (h *Handler) quoteTariff(c echo.Context) error {
	var req interfaces.TariffQuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid tariff quote payload")
	}
	return c.JSON(http.StatusOK, h.svc.QuoteTariff(req))
}

func (h *Handler) quoteShipping(c echo.Context) error {
	var in shipping.Input
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid shipping quote payload")
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	return c.JSON(http.StatusOK, h.svc.QuoteShipping(in))
}

func (h *Handler) quotePenalty(c echo.Context) error {
	var req interfaces.PenaltyQuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid penalty quote payload")
	}
	return c.JSON(http.StatusOK, h.svc.QuotePenalty(req))
}

// --- Envios ---

func (h *Handler) createShipment(c echo.Context) error {
	var in model.Intake
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid shipment payload")
	}
	res, err := h.svc.CreateShipment(c.Request().Context(), in)
	if errors.Is(err, domain.ErrGuardViolation) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":  "Blocked by Guards",
			"guards": res.Violations,
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) getShipment(c echo.Context) error {
	rec, err := h.svc.GetShipment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) updateDetails(c echo.Context) error {
	ops, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil || len(ops) == 0 {
		return badRequest(c, "patch body required")
	}
	rec, err := h.svc.UpdateDetails(c.Request().Context(), c.Param("id"), ops)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) handleEvent(c echo.Context) error {
	var in interfaces.EventInput
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&in); err != nil {
			return badRequest(c, "invalid event payload")
		}
	}
	rec, err := h.svc.HandleEvent(c.Request().Context(), c.Param("id"), clearance.Event(c.Param("event")), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) shippingCharges(c echo.Context) error {
	ch, err := h.svc.ShippingCharges(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) dutyCharges(c echo.Context) error {
	ch, err := h.svc.DutyCharges(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

type paymentOrderRequest struct {
	AmountInPaise int64 `json:"amountInPaise"`
}

func (h *Handler) paymentOrder(c echo.Context) error {
	var req paymentOrderRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid payment order payload")
		}
	}
	order, err := h.svc.CreatePaymentOrder(c.Request().Context(), c.Param("id"), req.AmountInPaise)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) uploadDocument(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
	if err != nil {
		return badRequest(c, "could not read document")
	}
	if len(data) > maxDocumentBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "document exceeds " + strconv.Itoa(maxDocumentBytes>>20) + " MiB"})
	}
	key, err := h.svc.UploadDocument(c.Request().Context(), c.Param("id"), c.Param("name"), data, c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"path": key})
}

func (h *Handler) removeDocument(c echo.Context) error {
	if err := h.svc.RemoveDocument(c.Request().Context(), c.Param("id"), c.Param("name")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Assistente ---

type hsSuggestRequest struct {
	Description string `json:"description"`
	Country     string `json:"country"`
}

func (h *Handler) suggestHSCode(c echo.Context) error {
	var req hsSuggestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid hs code payload")
	}
	return c.JSON(http.StatusOK, map[string]string{"hsCode": h.advisor.SuggestHSCode(c.Request().Context(), req.Description, req.Country)})
}

func (h *Handler) requiredDocuments(c echo.Context) error {
	docs := h.advisor.RequiredDocuments(c.Request().Context(), c.QueryParam("hs"), c.QueryParam("country"))
	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) analyzeRisk(c echo.Context) error {
	var req interfaces.RiskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid risk payload")
	}
	if strings.TrimSpace(req.HSCode) == "" {
		return badRequest(c, "hsCode required")
	}
	return c.JSON(http.StatusOK, h.advisor.AnalyzeRisk(c.Request().Context(), req))
}

// --- Painel ---

func (h *Handler) analyticsSummary(c echo.Context) error {
	sum, err := h.analytics.Summary(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// --- Erros ---

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrBadPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGuardViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c echo.Context, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(status, map[string]string{"error": "internal error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

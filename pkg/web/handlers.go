// Package web provides HTTP handlers for the webhook transport, the flow
// editor and the execution dashboard.
package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"math"
	"strconv"
	"time"

	"github.com/dukex/instaflow/pkg/eventbus"
	"github.com/dukex/instaflow/pkg/events"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/normalizer"
	"github.com/dukex/instaflow/pkg/registry"
	"github.com/dukex/instaflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Engine is the part of the automation engine exposed over HTTP.
type Engine interface {
	HandleEvent(ctx context.Context, raw []byte) (models.ExecutionSummary, error)
	Dispatch(ctx context.Context, event models.TriggerEvent) (models.ExecutionSummary, error)
	RunFlow(ctx context.Context, flowID string, event models.TriggerEvent) (models.ExecutionRecord, error)
	RecentExecutions(ctx context.Context, limit int) ([]models.ExecutionRecord, error)
}

type APIHandlers struct {
	logger      *slog.Logger
	flowService *services.Flow
	engine      Engine
	registry    *registry.Registry
	validator   *validator.Validate
	bus         eventbus.EventBus
	verifyToken string
	now         func() time.Time
}

type Option func(*APIHandlers)

// WithVerifyToken sets the token expected in webhook subscription handshakes.
func WithVerifyToken(token string) Option {
	return func(h *APIHandlers) {
		h.verifyToken = token
	}
}

// WithAsyncDelivery publishes webhook payloads to bus instead of handling
// them in the request.
func WithAsyncDelivery(bus eventbus.EventBus) Option {
	return func(h *APIHandlers) {
		h.bus = bus
	}
}

func NewAPIHandlers(
	logger *slog.Logger,
	flowService *services.Flow,
	engine Engine,
	registry *registry.Registry,
	validator *validator.Validate,
	opts ...Option,
) *APIHandlers {
	h := &APIHandlers{
		logger:      logger.With("module", "web"),
		flowService: flowService,
		engine:      engine,
		registry:    registry,
		validator:   validator,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// VerifyWebhook answers the platform subscription handshake.
func (h *APIHandlers) VerifyWebhook(c fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		h.logger.WarnContext(c.Context(), "Rejected webhook verification", "mode", mode)

		return forbidden(c, "Webhook verification failed")
	}

	return c.SendString(challenge)
}

// ReceiveWebhook accepts a raw platform payload. Payloads the engine cannot
// normalize are acknowledged so the platform does not redeliver them.
func (h *APIHandlers) ReceiveWebhook(c fiber.Ctx) error {
	// The request body buffer is reused by fiber after the handler returns.
	payload := bytes.Clone(c.Body())

	if h.bus != nil {
		err := h.bus.Publish(c.Context(), "webhook", events.NewWebhookReceived(h.bus.GenerateID(), payload))
		if err != nil {
			h.logger.ErrorContext(c.Context(), "Failed to publish webhook payload", "error", err)

			return serviceUnavailable(c, err)
		}

		return c.SendString(WebhookAcknowledgement)
	}

	summary, err := h.engine.HandleEvent(c.Context(), payload)
	if err != nil {
		if normalizer.IsNormalizationError(err) {
			return c.SendString(WebhookAcknowledgement)
		}

		return handleServiceError(c, err)
	}

	h.logger.DebugContext(c.Context(), "Webhook handled", "matched", summary.Matched)

	return c.SendString(WebhookAcknowledgement)
}

// ExecuteEvent runs a normalized event against every active flow.
func (h *APIHandlers) ExecuteEvent(c fiber.Ctx) error {
	event, err := h.bindEvent(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	summary, err := h.engine.Dispatch(c.Context(), event)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

// GetExecutions lists recent execution records. Without a limit every
// retained record is returned; limit=0 returns none.
func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	// The engine clamps the limit to the retention cap.
	limit := math.MaxInt

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit: "+err.Error())
		}

		if parsed < 0 {
			return badRequest(c, "Invalid limit: must not be negative")
		}

		limit = parsed
	}

	records, err := h.engine.RecentExecutions(c.Context(), limit)
	if err != nil {
		return serviceUnavailable(c, err)
	}

	return c.JSON(ExecutionsResponse{Executions: records, Count: len(records)})
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.flowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flows)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flowService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	req, err := h.bindFlow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), req.ToFlow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	req, err := h.bindFlow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.flowService.Update(c.Context(), c.Params("id"), req.ToFlow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	err := h.flowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateFlow(c fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *APIHandlers) DeactivateFlow(c fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *APIHandlers) setActive(c fiber.Ctx, active bool) error {
	flow, err := h.flowService.SetActive(c.Context(), c.Params("id"), active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

// RunFlow executes one flow for the event in the body.
func (h *APIHandlers) RunFlow(c fiber.Ctx) error {
	event, err := h.bindEvent(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.engine.RunFlow(c.Context(), c.Params("id"), event)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.Factories()

	response := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		response = append(response, TransformNodeType(factory))
	}

	return c.JSON(response)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	storeCheck, storeOk := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "InstaFlow API is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if regOk && storeOk {
		status = "healthy"
		message = "InstaFlow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"flow_store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) bindFlow(c fiber.Ctx) (FlowRequest, error) {
	var req FlowRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return req, errInvalidJSON
	}

	err = h.validator.Struct(req)
	if err != nil {
		return req, err
	}

	return req, nil
}

func (h *APIHandlers) bindEvent(c fiber.Ctx) (models.TriggerEvent, error) {
	var req TriggerEventRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return models.TriggerEvent{}, errInvalidJSON
	}

	err = h.validator.Struct(req)
	if err != nil {
		return models.TriggerEvent{}, err
	}

	if !req.Kind.Valid() {
		return models.TriggerEvent{}, errUnknownEventKind
	}

	return req.ToEvent(h.now()), nil
}

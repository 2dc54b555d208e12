package web

import "github.com/gofiber/fiber/v3"

// Register mounts every handler on router.
func (h *APIHandlers) Register(router fiber.Router) {
	webhook := router.Group("/webhook")
	webhook.Get("/instagram", h.VerifyWebhook)
	webhook.Post("/instagram", h.ReceiveWebhook)

	router.Get("/executions", h.GetExecutions)
	router.Get("/node-types", h.GetNodeTypes)
	router.Get("/health", h.HealthCheck)

	f := router.Group("/flows")
	f.Get("/", h.GetFlows)
	f.Post("/", h.CreateFlow)
	f.Post("/execute", h.ExecuteEvent)
	f.Get("/:id", h.GetFlow)
	f.Put("/:id", h.UpdateFlow)
	f.Delete("/:id", h.DeleteFlow)
	f.Post("/:id/activate", h.ActivateFlow)
	f.Post("/:id/deactivate", h.DeactivateFlow)
	f.Post("/:id/run", h.RunFlow)
}

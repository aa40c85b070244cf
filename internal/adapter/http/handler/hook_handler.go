package handler

import (
	"private-ledger-indexer/internal/adapter/http/dto"
	"private-ledger-indexer/internal/adapter/http/middleware"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"
	"private-ledger-indexer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HookHandler handles inbound chain-notifier webhooks.
type HookHandler struct {
	scheduler ports.ReloadScheduler
	log       zerolog.Logger
}

// NewHookHandler creates a new HookHandler.
func NewHookHandler(scheduler ports.ReloadScheduler, log zerolog.Logger) *HookHandler {
	return &HookHandler{scheduler: scheduler, log: log}
}

// LedgerEvent handles POST /api/v1/hooks/ledger. The handler only schedules
// a rebuild; the actual reload runs in the background, so delivery bursts
// collapse into at most one queued rebuild.
func (h *HookHandler) LedgerEvent(c *gin.Context) {
	var req dto.LedgerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	event, _ := c.Get(middleware.CtxHookEvent)

	h.scheduler.Trigger()

	h.log.Debug().
		Interface("event", event).
		Uint64("slot", req.Slot).
		Msg("ledger event accepted")

	response.Accepted(c, gin.H{"scheduled": true})
}

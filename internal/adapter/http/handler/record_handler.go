package handler

import (
	"encoding/base64"
	"time"

	"private-ledger-indexer/internal/adapter/http/dto"
	"private-ledger-indexer/internal/adapter/http/middleware"
	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"
	"private-ledger-indexer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecordHandler handles record listing and submission endpoints.
type RecordHandler struct {
	indexSvc  ports.IndexService
	scheduler ports.ReloadScheduler
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(indexSvc ports.IndexService, scheduler ports.ReloadScheduler) *RecordHandler {
	return &RecordHandler{indexSvc: indexSvc, scheduler: scheduler}
}

// List handles GET /api/v1/records. The authenticated client sees only its
// own records. Pass ?decrypt=true for server-side decryption of envelopes.
func (h *RecordHandler) List(c *gin.Context) {
	clientID, ok := c.Get(middleware.CtxClientID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	decrypt := c.Query("decrypt") == "true"

	views, err := h.indexSvc.Records(c.Request.Context(), clientID.(uuid.UUID), decrypt)
	if err != nil {
		response.Error(c, err)
		return
	}

	records := make([]dto.RecordResponse, 0, len(views))
	for _, v := range views {
		records = append(records, toRecordResponse(v))
	}

	response.OK(c, dto.RecordListResponse{
		Records: records,
		Count:   len(records),
	})
}

// Submit handles POST /api/v1/records. The notifier submits newly observed
// records here; a cache rebuild is scheduled after the insert commits.
func (h *RecordHandler) Submit(c *gin.Context) {
	var req dto.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid owner_id"))
		return
	}

	record, err := h.indexSvc.Submit(c.Request.Context(), ports.SubmitRecordInput{
		OwnerID:    ownerID,
		Commitment: req.Commitment,
		LeafIndex:  req.LeafIndex,
		Record: domain.PrivateRecord{
			Amount:   req.Amount,
			Blinding: req.Blinding,
			Index:    req.LeafIndex,
			AssetID:  req.AssetID,
		},
		Spends: req.Spends,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.scheduler.Trigger()

	response.Created(c, toRecordResponse(ports.RecordView{LedgerRecord: *record}))
}

func toRecordResponse(v ports.RecordView) dto.RecordResponse {
	resp := dto.RecordResponse{
		Commitment: v.Commitment,
		LeafIndex:  v.LeafIndex,
		AssetID:    v.AssetID,
		Envelope:   base64.StdEncoding.EncodeToString(v.Envelope),
		CreatedAt:  v.CreatedAt.Format(time.RFC3339),
	}
	if v.Decrypted != nil {
		resp.Decrypted = &dto.DecryptedRecord{
			Amount:   v.Decrypted.Amount,
			Blinding: v.Decrypted.Blinding,
			Index:    v.Decrypted.Index,
			AssetID:  v.Decrypted.AssetID,
		}
	}
	return resp
}

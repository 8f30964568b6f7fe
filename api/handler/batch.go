package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/api/transport"
	"github.com/sanrakshak/herbtrace/pkg/httpcontext"
	auditUC "github.com/sanrakshak/herbtrace/usecase/audit"
	ledgerUC "github.com/sanrakshak/herbtrace/usecase/ledger"
)

type BatchHandler struct {
	baseHandler
	ledger *ledgerUC.Ledger
	audit  *auditUC.UseCase
}

func NewBatchHandler(ledger *ledgerUC.Ledger, audit *auditUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		baseHandler: newBaseHandler(adapter, logger),
		ledger:      ledger,
		audit:       audit,
	}
}

// @Summary Record a collection event as a new batch
// @Tags batches
// @Router /api/collection [post]
func (h *BatchHandler) RecordCollection(ctx *fasthttp.RequestCtx) {
	var req transport.CollectionRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	// Collection date is stamped by the ledger clock, never by the client.
	batch, err := h.ledger.CreateBatch(stdCtx, ledgerUC.CollectionInput{
		FarmerID:        req.FarmerID,
		Species:         req.Species,
		WeightKg:        req.WeightKg,
		PhotoCID:        req.PhotoCID,
		Location:        *req.Location,
		FarmerSignature: req.FarmerSignature,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, batch)
}

// @Summary List batches
// @Tags batches
// @Router /api/batches [get]
func (h *BatchHandler) ListBatches(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	batches, err := h.ledger.ListBatches(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, batches)
}

// @Summary Get batch (public verification lookup)
// @Tags batches
// @Router /api/batch/{batchId} [get]
func (h *BatchHandler) GetBatch(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	batch, err := h.ledger.GetBatch(stdCtx, pathParam(ctx, "batchId"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, batch)
}

// @Summary Ledger event history of a batch
// @Tags audit
// @Router /api/batch/{batchId}/events [get]
func (h *BatchHandler) ListEvents(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.audit.Trail(stdCtx, pathParam(ctx, "batchId"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}

// @Summary Record a quality test
// @Tags batches
// @Router /api/quality-test [post]
func (h *BatchHandler) RecordQualityTest(ctx *fasthttp.RequestCtx) {
	var req transport.QualityTestRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	in := ledgerUC.QualityTestInput{
		BatchID:           req.BatchID,
		SampleID:          req.SampleID,
		MoisturePct:       *req.MoisturePct,
		PesticideDetected: *req.PesticideDetected,
		ReportCID:         req.ReportCID,
		LabSignature:      req.LabSignature,
	}
	if req.TestDate != nil {
		in.TestDate = *req.TestDate
	}

	batch, err := h.ledger.RecordQualityTest(stdCtx, in)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, batch)
}

// @Summary Record a processing step
// @Tags batches
// @Router /api/processing-step [post]
func (h *BatchHandler) RecordProcessingStep(ctx *fasthttp.RequestCtx) {
	var req transport.ProcessingStepRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	batch, err := h.ledger.RecordProcessingStep(stdCtx, ledgerUC.ProcessingStepInput{
		BatchID:               req.BatchID,
		StepName:              req.StepName,
		Details:               req.Details,
		ManufacturerSignature: req.ManufacturerSignature,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, batch)
}

// @Summary Finalize a batch
// @Tags batches
// @Router /api/finalize-batch [post]
func (h *BatchHandler) FinalizeBatch(ctx *fasthttp.RequestCtx) {
	var req transport.FinalizeRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	batch, err := h.ledger.FinalizeBatch(stdCtx, req.BatchID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, batch)
}

// @Summary Reject a batch
// @Tags batches
// @Router /api/reject-batch [post]
func (h *BatchHandler) RejectBatch(ctx *fasthttp.RequestCtx) {
	var req transport.RejectRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	batch, err := h.ledger.RejectBatch(stdCtx, req.BatchID, req.Reason)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, batch)
}

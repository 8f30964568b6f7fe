package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/api/transport"
	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/pkg/httpcontext"
	ledgerUC "github.com/sanrakshak/herbtrace/usecase/ledger"
	registryUC "github.com/sanrakshak/herbtrace/usecase/registry"
)

type FarmerHandler struct {
	baseHandler
	registry *registryUC.UseCase
	ledger   *ledgerUC.Ledger
}

func NewFarmerHandler(registry *registryUC.UseCase, ledger *ledgerUC.Ledger, adapter *httpcontext.Adapter, logger *zap.Logger) *FarmerHandler {
	return &FarmerHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
		ledger:      ledger,
	}
}

// @Summary List farmers
// @Tags farmers
// @Router /api/farmers [get]
func (h *FarmerHandler) ListFarmers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	farmers, err := h.registry.List(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, farmers)
}

// @Summary Register farmer
// @Tags farmers
// @Router /api/farmers [post]
func (h *FarmerHandler) RegisterFarmer(ctx *fasthttp.RequestCtx) {
	var req transport.FarmerRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	farmer, err := h.registry.Register(stdCtx, req.Farmer())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, farmer)
}

// @Summary Get farmer
// @Tags farmers
// @Router /api/farmers/{farmerId} [get]
func (h *FarmerHandler) GetFarmer(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	farmer, err := h.registry.Get(stdCtx, pathParam(ctx, "farmerId"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, farmer)
}

// @Summary Update farmer
// @Tags farmers
// @Router /api/farmers/{farmerId} [put]
func (h *FarmerHandler) UpdateFarmer(ctx *fasthttp.RequestCtx) {
	var patch domain.FarmerPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	farmer, err := h.registry.Update(stdCtx, pathParam(ctx, "farmerId"), patch)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, farmer)
}

// @Summary Batches collected by a farmer
// @Tags farmers
// @Router /api/farmers/{farmerId}/batches [get]
func (h *FarmerHandler) ListFarmerBatches(ctx *fasthttp.RequestCtx) {
	farmerID := pathParam(ctx, "farmerId")

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	batches, err := h.ledger.ListBatchesByFarmer(stdCtx, farmerID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	meta := map[string]bool{"farmerRegistered": h.registry.Exists(stdCtx, farmerID)}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(batches, meta))
}

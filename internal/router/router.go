package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/sanrakshak/herbtrace/api/handler"
	"github.com/sanrakshak/herbtrace/domain"
)

type Handlers struct {
	Batch  *apiHandler.BatchHandler
	Farmer *apiHandler.FarmerHandler
	Health *apiHandler.HealthHandler
}

// Gate wraps a handler so only roles holding capability reach it.
type Gate func(capability domain.Capability) func(fasthttp.RequestHandler) fasthttp.RequestHandler

type Options struct {
	// Metrics is served on /metrics when set.
	Metrics     prometheus.Gatherer
	EnablePprof bool
}

func New(handlers Handlers, gate Gate, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}),
		))
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	// Public lookups
	r.GET("/api/batches", handlers.Batch.ListBatches)
	r.GET("/api/batch/{batchId}", handlers.Batch.GetBatch)
	r.GET("/api/farmers", handlers.Farmer.ListFarmers)
	r.GET("/api/farmers/{farmerId}", handlers.Farmer.GetFarmer)
	r.GET("/api/farmers/{farmerId}/batches", handlers.Farmer.ListFarmerBatches)

	// Role-gated writes
	r.POST("/api/collection", gate(domain.CapRecordCollection)(handlers.Batch.RecordCollection))
	r.POST("/api/quality-test", gate(domain.CapRecordTest)(handlers.Batch.RecordQualityTest))
	r.POST("/api/processing-step", gate(domain.CapRecordStep)(handlers.Batch.RecordProcessingStep))
	r.POST("/api/finalize-batch", gate(domain.CapFinalizeBatch)(handlers.Batch.FinalizeBatch))
	r.POST("/api/reject-batch", gate(domain.CapRejectBatch)(handlers.Batch.RejectBatch))
	r.GET("/api/batch/{batchId}/events", gate(domain.CapAuditBatches)(handlers.Batch.ListEvents))

	r.POST("/api/farmers", gate(domain.CapManageFarmers)(handlers.Farmer.RegisterFarmer))
	r.PUT("/api/farmers/{farmerId}", gate(domain.CapManageFarmers)(handlers.Farmer.UpdateFarmer))

	return r
}

package export

import (
	"context"

	"uploader/internal/catalog"
	"uploader/internal/logger"
	"uploader/internal/services/bulsaja"
	"uploader/internal/worker/processors/validation"
)

// Uploader is the part of the vendor client the exporter needs.
type Uploader interface {
	UpdateUploadFields(ctx context.Context, productID string, skus []catalog.SKU) error
	UploadProduct(ctx context.Context, productID, marketID, marketType string, preventDuplicate bool) (*bulsaja.UploadResponse, error)
}

type Options struct {
	SkipSKUUpdate    bool
	PreventDuplicate bool
}

// Target is one storefront of a market group.
type Target struct {
	Group    string
	Market   catalog.Market
	MarketID string
}

type Result struct {
	Outcome bulsaja.UploadOutcome
	Message string
}

type Exporter struct {
	api     Uploader
	options Options
	logger  *logger.Logger
}

func New(api Uploader, opts Options, logger *logger.Logger) *Exporter {
	return &Exporter{
		api:     api,
		options: opts,
		logger:  logger,
	}
}

// WriteOptions stores the chosen options on the product: selected options
// first, everything else excluded. It is a no-op with SkipSKUUpdate.
func (e *Exporter) WriteOptions(ctx context.Context, p *catalog.Product, d validation.Decision) error {
	if e.options.SkipSKUUpdate {
		return nil
	}
	if err := e.api.UpdateUploadFields(ctx, p.ID, d.UploadSKUs(p.SKUs)); err != nil {
		e.logger.Error("%s: option update failed: %v", p.ID, err)
		return err
	}
	return nil
}

// Export uploads the product to one market. Transport errors come back as a
// failed Result plus the error.
func (e *Exporter) Export(ctx context.Context, p *catalog.Product, d validation.Decision, t Target) (Result, error) {
	resp, err := e.api.UploadProduct(ctx, p.ID, t.MarketID, t.Market.Type, e.options.PreventDuplicate)
	if err != nil {
		e.logger.Error("[%s] %s: upload request failed: %v", t.Market.Code, p.ID, err)
		return Result{Outcome: bulsaja.UploadFailed, Message: err.Error()}, err
	}

	res := Result{Outcome: bulsaja.ClassifyUpload(resp), Message: resp.Message}
	switch res.Outcome {
	case bulsaja.UploadSuccess:
		e.logger.Info("[%s] %s uploaded (%d options, main %s)", t.Market.Code, p.ID, len(d.Selected), d.Main.ID)
	case bulsaja.UploadDuplicate:
		e.logger.Info("[%s] %s already on market: %s", t.Market.Code, p.ID, resp.Message)
	default:
		e.logger.Error("[%s] %s upload rejected (%s): %s", t.Market.Code, p.ID, res.Outcome, resp.Message)
	}
	return res, nil
}

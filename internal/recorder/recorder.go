package recorder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

// Ledger is the persistence the recorder posts through.
type Ledger interface {
	AccountByCode(ctx context.Context, businessID int64, code int) (*ledger.Account, error)
	AccountingMethod(ctx context.Context, businessID int64) (inventory.Method, error)
	PostEntry(ctx context.Context, e *ledger.JournalEntry) error
	CompleteSale(ctx context.Context, ev *events.SaleEvent, entry *ledger.JournalEntry) error
	CompletePurchase(ctx context.Context, ev *events.PurchaseEvent, entry *ledger.JournalEntry) error
}

// Costing prices the items of a sale.
type Costing interface {
	CalculateSaleCOGS(ctx context.Context, businessID int64, items []events.SaleItem, method inventory.Method) (*cogs.SaleCOGS, error)
}

type Recorder struct {
	ledger  Ledger
	costing Costing
	log     logrus.FieldLogger
}

func New(l Ledger, costing Costing, log logrus.FieldLogger) *Recorder {
	return &Recorder{ledger: l, costing: costing, log: log}
}

// SaleResult is a committed sale with its costing.
type SaleResult struct {
	Entry    *ledger.JournalEntry  `json:"entry"`
	Costing  *cogs.SaleCOGS        `json:"costing,omitempty"`
	Warnings []cogs.CostingWarning `json:"warnings,omitempty"`
}

// resolve checks every account the template posts to exists for the
// business. It runs before anything is written.
func (r *Recorder) resolve(ctx context.Context, businessID int64, t ledger.Template) error {
	for _, code := range t.Codes() {
		if _, err := r.ledger.AccountByCode(ctx, businessID, code); err != nil {
			return err
		}
	}
	return nil
}

func saleTemplate(ev *events.SaleEvent) ledger.Template {
	if ev.IsCredit {
		return ledger.CreditSaleTemplate
	}
	return ledger.CashSaleTemplate
}

// BuildSale returns the sale's journal entry without posting it. The items
// must already carry their COGS.
func (r *Recorder) BuildSale(ctx context.Context, ev *events.SaleEvent) (*ledger.JournalEntry, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	t := saleTemplate(ev)
	if err := r.resolve(ctx, ev.BusinessID, t); err != nil {
		return nil, err
	}
	kind := "Cash"
	if ev.IsCredit {
		kind = "Credit"
	}
	return &ledger.JournalEntry{
		BusinessID:  ev.BusinessID,
		EntryDate:   ev.Date,
		Description: fmt.Sprintf("%s sale %s", kind, ev.SaleID),
		Reference:   ev.CustomerID,
		SourceType:  ledger.SourceSale,
		SourceID:    ev.SaleID,
		CreatedBy:   ev.CreatedBy,
		Lines:       t.Build(ev.TotalAmount, ev.TotalCOGS()),
	}, nil
}

// RecordSale posts a sale whose items already carry their COGS, as sent
// by a till that keeps its own stock. It does not touch stock or the sale
// record; CompleteSale does both.
func (r *Recorder) RecordSale(ctx context.Context, ev *events.SaleEvent) (*ledger.JournalEntry, error) {
	for i, it := range ev.Items {
		if it.COGS.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has a negative cost", events.ErrInvalidEvent, i)
		}
	}
	if ev.SaleID == "" {
		ev.SaleID = uuid.Must(uuid.NewV7()).String()
	}
	e, err := r.BuildSale(ctx, ev)
	if err != nil {
		return nil, err
	}
	if err := r.ledger.PostEntry(ctx, e); err != nil {
		return nil, r.postFailed(e, err)
	}
	return e, nil
}

// CompleteSale costs the items of a sale, then commits the journal entry,
// the sale record with its cost snapshot and the outbound stock movements
// together. Costing problems are returned as warnings and never block the
// sale.
func (r *Recorder) CompleteSale(ctx context.Context, ev *events.SaleEvent) (*SaleResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.SaleID == "" {
		ev.SaleID = uuid.Must(uuid.NewV7()).String()
	}
	if err := r.resolve(ctx, ev.BusinessID, saleTemplate(ev)); err != nil {
		return nil, err
	}

	method, err := r.ledger.AccountingMethod(ctx, ev.BusinessID)
	if err != nil {
		return nil, err
	}
	costing, err := r.costing.CalculateSaleCOGS(ctx, ev.BusinessID, ev.Items, method)
	if err != nil {
		return nil, fmt.Errorf("cost sale %s: %w", ev.SaleID, err)
	}
	if err := costing.Apply(ev.Items); err != nil {
		return nil, err
	}

	e, err := r.BuildSale(ctx, ev)
	if err != nil {
		return nil, err
	}
	if err := r.ledger.CompleteSale(ctx, ev, e); err != nil {
		return nil, r.postFailed(e, err)
	}

	if costing.Degraded() {
		r.log.WithFields(logrus.Fields{
			"business_id": ev.BusinessID,
			"sale_id":     ev.SaleID,
			"entry_id":    e.ID,
			"warnings":    len(costing.Warnings),
		}).Warn("sale recorded with degraded costing")
	}
	return &SaleResult{Entry: e, Costing: costing, Warnings: costing.Warnings}, nil
}

// RecordPurchase posts a purchase on credit and receives its items, if any,
// into stock.
func (r *Recorder) RecordPurchase(ctx context.Context, ev *events.PurchaseEvent) (*ledger.JournalEntry, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := r.resolve(ctx, ev.BusinessID, ledger.PurchaseTemplate); err != nil {
		return nil, err
	}
	e := &ledger.JournalEntry{
		BusinessID:  ev.BusinessID,
		EntryDate:   ev.Date,
		Description: fmt.Sprintf("Purchase %s", ev.PurchaseID),
		Reference:   ev.SupplierID,
		SourceType:  ledger.SourcePurchase,
		SourceID:    ev.PurchaseID,
		CreatedBy:   ev.CreatedBy,
		Lines:       PurchaseLines(ev.TotalCost),
	}
	if err := r.ledger.CompletePurchase(ctx, ev, e); err != nil {
		return nil, r.postFailed(e, err)
	}
	return e, nil
}

func (r *Recorder) RecordPaymentReceived(ctx context.Context, ev *events.PaymentEvent) (*ledger.JournalEntry, error) {
	return r.recordPayment(ctx, ev, ledger.PaymentReceivedTemplate, "Payment received")
}

func (r *Recorder) RecordPaymentMade(ctx context.Context, ev *events.PaymentEvent) (*ledger.JournalEntry, error) {
	return r.recordPayment(ctx, ev, ledger.PaymentMadeTemplate, "Payment made")
}

func (r *Recorder) recordPayment(ctx context.Context, ev *events.PaymentEvent, t ledger.Template, label string) (*ledger.JournalEntry, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := r.resolve(ctx, ev.BusinessID, t); err != nil {
		return nil, err
	}
	e := &ledger.JournalEntry{
		BusinessID:  ev.BusinessID,
		EntryDate:   ev.Date,
		Description: fmt.Sprintf("%s %s", label, ev.PaymentID),
		Reference:   ev.ReferenceNumber,
		SourceType:  t.Source,
		SourceID:    ev.PaymentID,
		CreatedBy:   ev.CreatedBy,
		Lines:       t.Build(ev.Amount, ev.Amount),
	}
	if err := r.ledger.PostEntry(ctx, e); err != nil {
		return nil, r.postFailed(e, err)
	}
	return e, nil
}

func (r *Recorder) postFailed(e *ledger.JournalEntry, err error) error {
	r.log.WithFields(logrus.Fields{
		"business_id": e.BusinessID,
		"source_type": string(e.SourceType),
		"source_id":   e.SourceID,
	}).WithError(err).Error("posting failed")
	return err
}

package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"lazycashier/internal/scanning"
)

// scanTimeout bounds the extraction call so a stuck provider surfaces as a
// user-visible failure instead of hanging the capture flow.
const scanTimeout = 30 * time.Second

// ErrInvalidAmount is returned by the confirmation gate and the expense form
// when an amount is not a finite number strictly greater than zero.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// IDGenerator generates unique record IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// CreateReceiptInput is the confirmation-gate payload. Price must be a finite
// number strictly greater than zero or the commit is blocked.
type CreateReceiptInput struct {
	ImageData  string  `json:"image_data" validate:"required"`
	Price      float64 `json:"price" validate:"required,finite,gt=0"`
	OCRText    string  `json:"ocr_text"`
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
}

// Service handles the capture, confirm, persist and aggregation operations
type Service struct {
	store     Store
	extractor scanning.TextExtractor
	hub       *Hub
	validate  *validator.Validate
	idGen     IDGenerator
	timeSrc   TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, extractor scanning.TextExtractor) *Service {
	return NewServiceWithDeps(store, extractor, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, extractor scanning.TextExtractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})

	return &Service{
		store:     store,
		extractor: extractor,
		hub:       NewHub(),
		validate:  v,
		idGen:     idGen,
		timeSrc:   timeSrc,
	}
}

// ScanReceipt normalizes a capture, runs it through OCR and price extraction,
// and returns an unsaved draft for the user to confirm. Nothing is persisted;
// a retake simply discards the draft client-side.
func (s *Service) ScanReceipt(ctx context.Context, data []byte, contentType string) (*DraftReceipt, error) {
	normalized, fallback := scanning.Normalize(data, contentType)
	if fallback {
		slog.Warn("Image normalization fell back to original bytes",
			"content_type", contentType,
			"size", len(data),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	result, err := s.extractor.ExtractText(ctx, normalized)
	if err != nil {
		slog.Error("Failed to extract text from receipt",
			"content_type", contentType,
			"size", len(normalized),
			"error", err,
		)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	match, err := scanning.ExtractPrice(result.Text)
	if err != nil {
		return nil, fmt.Errorf("extracting price: %w", err)
	}

	return &DraftReceipt{
		ImageData:     base64.StdEncoding.EncodeToString(normalized),
		Price:         match.Amount,
		OCRText:       result.Text,
		Pattern:       match.Pattern,
		Confidence:    result.Confidence,
		ImageFallback: fallback,
	}, nil
}

// CreateReceipt persists a confirmed draft. This is the only path into the
// receipts collection; the gate validation runs here so no client can bypass it.
func (s *Service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (*Receipt, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	receipt := &Receipt{
		ID:         s.idGen.Generate(),
		ImageData:  input.ImageData,
		Price:      input.Price,
		OCRText:    input.OCRText,
		Pattern:    input.Pattern,
		Confidence: input.Confidence,
		CreatedAt:  s.timeSrc.Now(),
	}

	if err := s.store.SaveReceipt(ctx, receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}

	s.notify(ctx)
	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	receipt, err := s.store.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (s *Service) ListReceipts(ctx context.Context) ([]*Receipt, error) {
	receipts, err := s.store.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// GetReceiptImage returns the decoded image bytes for a receipt. Normalized
// images are always JPEG.
func (s *Service) GetReceiptImage(ctx context.Context, id string) ([]byte, string, error) {
	receipt, err := s.store.GetReceipt(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(receipt.ImageData)
	if err != nil {
		return nil, "", fmt.Errorf("decoding receipt image: %w", err)
	}
	return data, "image/jpeg", nil
}

// DeleteReceipt removes a receipt
func (s *Service) DeleteReceipt(ctx context.Context, id string) error {
	if err := s.store.DeleteReceipt(ctx, id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}

	s.notify(ctx)
	return nil
}

// AddExpense inserts a new manually-entered expense record. Every submission
// is additive; there is no replace-latest path.
func (s *Service) AddExpense(ctx context.Context, amount float64) (*Expense, error) {
	input := struct {
		Amount float64 `validate:"required,finite,gt=0"`
	}{Amount: amount}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	expense := &Expense{
		ID:        s.idGen.Generate(),
		Amount:    amount,
		Type:      ExpenseTypeTotal,
		CreatedAt: s.timeSrc.Now(),
	}

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}

	s.notify(ctx)
	return expense, nil
}

// ListExpenses returns all expenses, newest first
func (s *Service) ListExpenses(ctx context.Context) ([]*Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// Summary recomputes the derived totals from the full record set. No running
// total is maintained anywhere; every call sums what the store holds now.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	receipts, err := s.store.ListReceipts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing receipts: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing expenses: %w", err)
	}

	var summary Summary
	for _, r := range receipts {
		summary.Revenue += r.Price
	}
	for _, e := range expenses {
		summary.Expenses += e.Amount
	}
	summary.Profit = summary.Revenue - summary.Expenses
	summary.Transactions = len(receipts)
	return summary, nil
}

// Watch subscribes to live summary snapshots. The caller must invoke the
// cancel func when done.
func (s *Service) Watch() (<-chan Summary, func()) {
	return s.hub.Subscribe()
}

// notify broadcasts a freshly recomputed summary after a mutation
func (s *Service) notify(ctx context.Context) {
	summary, err := s.Summary(ctx)
	if err != nil {
		slog.Warn("Failed to recompute summary for broadcast", "error", err)
		return
	}
	s.hub.Broadcast(summary)
}

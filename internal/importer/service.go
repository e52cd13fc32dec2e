package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/importer/ledgercsv"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Parser interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
}

// BatchWriter is the write side of transaction.Service used by imports.
type BatchWriter interface {
	ImportBatch(ctx context.Context, tenantID uuid.UUID, params []transaction.CreateParams) (*transaction.ImportResult, error)
	CreateBatch(ctx context.Context, tenantID uuid.UUID, params []transaction.CreateParams) ([]*transaction.Transaction, error)
}

// Suggester proposes a category for an entry that arrived without one.
type Suggester interface {
	Suggest(ctx context.Context, tenantID uuid.UUID, typ transaction.Type, description string) (string, error)
}

type Service struct {
	parser    Parser
	txs       BatchWriter
	suggester Suggester
}

type Option func(*Service)

func WithSuggester(s Suggester) Option {
	return func(svc *Service) { svc.suggester = s }
}

func NewService(txs BatchWriter, opts ...Option) *Service {
	s := &Service{
		parser: ledgercsv.NewParser(),
		txs:    txs,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Batch is a parsed file waiting to be written.
type Batch struct {
	Params []transaction.CreateParams
	// Suggested[i] is set when Params[i].Category came from a category rule.
	Suggested []bool
}

// Prepare parses r and fills missing categories from the category rules.
func (s *Service) Prepare(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*Batch, error) {
	params, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transaction.ErrValidation, err)
	}

	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no transactions found in file", transaction.ErrValidation)
	}

	return &Batch{
		Params:    params,
		Suggested: s.suggestCategories(ctx, tenantID, params),
	}, nil
}

// Write stores params. Unless force is set, nothing is written when some entries look like
// ones already in the ledger; the result then lists the conflicts.
func (s *Service) Write(ctx context.Context, tenantID uuid.UUID, params []transaction.CreateParams, force bool) (*transaction.ImportResult, error) {
	if !force {
		return s.txs.ImportBatch(ctx, tenantID, params)
	}

	txs, err := s.txs.CreateBatch(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "forced import", "tenant_id", tenantID, "count", len(txs))

	return &transaction.ImportResult{Imported: txs}, nil
}

// Import prepares r and writes it in one step.
func (s *Service) Import(ctx context.Context, tenantID uuid.UUID, r io.Reader, force bool) (*transaction.ImportResult, error) {
	batch, err := s.Prepare(ctx, tenantID, r)
	if err != nil {
		return nil, err
	}

	return s.Write(ctx, tenantID, batch.Params, force)
}

func (s *Service) suggestCategories(ctx context.Context, tenantID uuid.UUID, params []transaction.CreateParams) []bool {
	suggested := make([]bool, len(params))
	if s.suggester == nil {
		return suggested
	}

	for i, p := range params {
		if p.Category != nil {
			continue
		}

		category, err := s.suggester.Suggest(ctx, tenantID, p.Type, p.Description)
		if err != nil {
			slog.WarnContext(ctx, "category suggestion failed", "description", p.Description, "error", err)
			continue
		}

		if category == "" {
			continue
		}

		params[i].Category = &category
		suggested[i] = true
	}

	return suggested
}

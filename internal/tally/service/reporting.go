package service

import (
	"context"
	"fmt"
	"io"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
)

// SpreadsheetWriter encodes the admin export. The excelize implementation
// lives in internal/tally/export.
type SpreadsheetWriter interface {
	WriteWorkbook(w io.Writer, users []domain.User, transactions []domain.OwnedTransaction) error
}

// ReportingService backs the admin console listings and the xlsx export.
type ReportingService struct {
	Store       store.Store
	Spreadsheet SpreadsheetWriter
}

// ListUsers returns every user, newest first.
func (s *ReportingService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// ListTransactions returns every transaction with its owner's email, newest
// first.
func (s *ReportingService) ListTransactions(ctx context.Context) ([]domain.OwnedTransaction, error) {
	return s.Store.Transactions().ListAll(ctx)
}

// Export writes the full users + transactions workbook to w.
func (s *ReportingService) Export(ctx context.Context, w io.Writer) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	transactions, err := s.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	return s.Spreadsheet.WriteWorkbook(w, users, transactions)
}

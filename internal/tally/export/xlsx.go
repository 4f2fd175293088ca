// Package export encodes admin reporting data as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/xuri/excelize/v2"
)

const (
	usersSheet        = "users"
	transactionsSheet = "transactions"
)

// XLSXWriter writes the admin export workbook with excelize. The zero value
// is ready to use.
type XLSXWriter struct{}

// WriteWorkbook writes a workbook with a "users" and a "transactions" sheet
// to w. Monetary values are written as their decimal string form so no
// precision is lost to float cells.
func (XLSXWriter) WriteWorkbook(w io.Writer, users []domain.User, transactions []domain.OwnedTransaction) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), usersSheet)
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return fmt.Errorf("create transactions sheet: %w", err)
	}

	userRows := make([][]any, 0, len(users)+1)
	userRows = append(userRows, []any{"id", "email", "balance", "created_at"})
	for _, u := range users {
		userRows = append(userRows, []any{u.ID, u.Email, u.Balance.String(), formatTime(u.CreatedAt)})
	}
	if err := writeRows(f, usersSheet, userRows); err != nil {
		return err
	}

	txRows := make([][]any, 0, len(transactions)+1)
	txRows = append(txRows, []any{"id", "email", "type", "amount", "balance", "created_at"})
	for _, t := range transactions {
		txRows = append(txRows, []any{
			t.ID, t.OwnerEmail, string(t.Type), t.Amount.String(), t.Balance.String(), formatTime(t.CreatedAt),
		})
	}
	if err := writeRows(f, transactionsSheet, txRows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

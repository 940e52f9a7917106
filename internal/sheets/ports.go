// Package sheets defines the outbound port for the transaction ledger
// mirror and holds its adapters.
package sheets

import (
	"context"
	"time"
)

// Row is one ledger line appended for a transaction change.
type Row struct {
	Action      string
	ID          string
	Type        string
	Date        string
	Description string
	Category    string
	Amount      float64
	RecordedAt  time.Time
}

// LedgerWriter appends rows to the mirrored ledger.
type LedgerWriter interface {
	Append(ctx context.Context, row Row) (rowRef string, err error)
}

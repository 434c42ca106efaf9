package timebank

import "time"

// TimeBankEntry is one signed posting in the append-only time-bank ledger.
// Entries are never edited; adjustments and reversals are new entries
// referencing what they offset.
type TimeBankEntry struct {
	ID         string
	EmployeeID string
	Period     string // "2006-01" accrual period
	Kind       EntryKind

	DeltaMinutes            int
	ResultingBalanceMinutes int

	// SourceDate is the employee day whose computation produced the entry.
	SourceDate time.Time

	// AdjustsEntryID references the entry this posting offsets, for
	// adjustment and reversal entries.
	AdjustsEntryID *string

	CreatedAt time.Time
}

type EntryKind string

const (
	// KindAccrual is the first posting for an employee day.
	KindAccrual EntryKind = "accrual"
	// KindAdjustment offsets a prior posting after a recomputation.
	KindAdjustment EntryKind = "adjustment"
	// KindPayout settles balance outside the bank (managerial disposition).
	KindPayout EntryKind = "payout"
)

type TimeBankEntryResponse struct {
	ID                      string  `json:"id"`
	EmployeeID              string  `json:"employee_id"`
	Period                  string  `json:"period"`
	Kind                    string  `json:"kind"`
	DeltaMinutes            int     `json:"delta_minutes"`
	ResultingBalanceMinutes int     `json:"resulting_balance_minutes"`
	SourceDate              string  `json:"source_date"`
	AdjustsEntryID          *string `json:"adjusts_entry_id,omitempty"`
}

func ToResponse(e TimeBankEntry) TimeBankEntryResponse {
	return TimeBankEntryResponse{
		ID:                      e.ID,
		EmployeeID:              e.EmployeeID,
		Period:                  e.Period,
		Kind:                    string(e.Kind),
		DeltaMinutes:            e.DeltaMinutes,
		ResultingBalanceMinutes: e.ResultingBalanceMinutes,
		SourceDate:              e.SourceDate.Format("2006-01-02"),
		AdjustsEntryID:          e.AdjustsEntryID,
	}
}

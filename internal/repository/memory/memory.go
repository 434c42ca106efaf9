// Package memory provides in-memory repository implementations used by the
// service tests and by local development without PostgreSQL. They hold the
// same invariants as the postgresql package (append-only ledgers, ordered
// listings) behind a mutex.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
)

// ========================================
// EMPLOYEE DIRECTORY
// ========================================

// EmployeeDirectory is the in-memory compliance.EmployeeResolver.
type EmployeeDirectory struct {
	mu    sync.RWMutex
	byCPF map[string]string
}

func NewEmployeeDirectory() *EmployeeDirectory {
	return &EmployeeDirectory{byCPF: make(map[string]string)}
}

func (d *EmployeeDirectory) Register(cpf, employeeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byCPF[cpf] = employeeID
}

func (d *EmployeeDirectory) ByCPF(_ context.Context, cpf string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byCPF[cpf]
	if !ok {
		return "", compliance.ErrUnknownEmployee
	}
	return id, nil
}

// ========================================
// PUNCH REPOSITORY
// ========================================

type PunchRepository struct {
	mu      sync.RWMutex
	punches map[string]punch.Punch
}

func NewPunchRepository() *PunchRepository {
	return &PunchRepository{punches: make(map[string]punch.Punch)}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (r *PunchRepository) Create(_ context.Context, p punch.Punch) (punch.Punch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.punches[p.ID] = p
	return p, nil
}

func (r *PunchRepository) Update(_ context.Context, p punch.Punch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.punches[p.ID]; !ok {
		return punch.ErrPunchNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.punches[p.ID] = p
	return nil
}

func (r *PunchRepository) GetByID(_ context.Context, id string) (punch.Punch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.punches[id]
	if !ok {
		return punch.Punch{}, punch.ErrPunchNotFound
	}
	return p, nil
}

func (r *PunchRepository) ListByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) ([]punch.Punch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []punch.Punch
	for _, p := range r.punches {
		if p.EmployeeID == employeeID && dayKey(p.Date) == dayKey(date) {
			out = append(out, p)
		}
	}
	sortPunches(out)
	return out, nil
}

func (r *PunchRepository) ExistsBySource(_ context.Context, employeeID string, at time.Time, deviceSerial string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.punches {
		if p.EmployeeID == employeeID && p.Time.Equal(at) &&
			p.DeviceSerial != nil && *p.DeviceSerial == deviceSerial {
			return true, nil
		}
	}
	return false, nil
}

func (r *PunchRepository) ListForExport(_ context.Context, from, to time.Time, employeeIDs []string) ([]punch.Punch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	allow := map[string]bool{}
	for _, id := range employeeIDs {
		allow[id] = true
	}
	var out []punch.Punch
	for _, p := range r.punches {
		if p.Status != punch.StatusValid {
			continue
		}
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		if len(allow) > 0 && !allow[p.EmployeeID] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PunchRepository) List(_ context.Context, filter punch.PunchFilter) ([]punch.Punch, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []punch.Punch
	for _, p := range r.punches {
		if filter.EmployeeID != nil && *filter.EmployeeID != "" && p.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(p.Status) != *filter.Status {
			continue
		}
		if filter.StartDate != nil && *filter.StartDate != "" && dayKey(p.Date) < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && dayKey(p.Date) > *filter.EndDate {
			continue
		}
		out = append(out, p)
	}
	sortPunches(out)
	total := int64(len(out))

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *PunchRepository) ListUnclosedDays(_ context.Context, before time.Time) ([]punch.DayRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := map[string]punch.Punch{}
	for _, p := range r.punches {
		if !p.Date.Before(before) || p.Status == punch.StatusRejected {
			continue
		}
		k := p.EmployeeID + "|" + dayKey(p.Date)
		cur, ok := latest[k]
		if !ok || p.Time.After(cur.Time) {
			latest[k] = p
		}
	}
	var out []punch.DayRef
	for _, p := range latest {
		if p.Type != punch.EntryClockOut {
			out = append(out, punch.DayRef{EmployeeID: p.EmployeeID, Date: p.Date})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func sortPunches(ps []punch.Punch) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Time.Equal(ps[j].Time) {
			return ps[i].Time.Before(ps[j].Time)
		}
		return ps[i].ID < ps[j].ID
	})
}

// ========================================
// SHIFT RULE REPOSITORY
// ========================================

type ShiftRuleRepository struct {
	mu          sync.RWMutex
	rules       map[string]schedule.ShiftRule
	assignments []schedule.Assignment
	nextID      int
}

func NewShiftRuleRepository() *ShiftRuleRepository {
	return &ShiftRuleRepository{rules: make(map[string]schedule.ShiftRule)}
}

func (r *ShiftRuleRepository) Create(_ context.Context, rule schedule.ShiftRule) (schedule.ShiftRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	r.rules[rule.ID] = rule
	return rule, nil
}

func (r *ShiftRuleRepository) Update(_ context.Context, rule schedule.ShiftRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return schedule.ErrShiftRuleNotFound
	}
	rule.UpdatedAt = time.Now().UTC()
	r.rules[rule.ID] = rule
	return nil
}

func (r *ShiftRuleRepository) GetByID(_ context.Context, id string) (schedule.ShiftRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return schedule.ShiftRule{}, schedule.ErrShiftRuleNotFound
	}
	return rule, nil
}

func (r *ShiftRuleRepository) List(_ context.Context) ([]schedule.ShiftRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schedule.ShiftRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ShiftRuleRepository) ActiveForEmployee(_ context.Context, employeeID string, at time.Time) (schedule.ShiftRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assignments {
		if a.EmployeeID != employeeID {
			continue
		}
		if at.Before(a.StartDate) {
			continue
		}
		if a.EndDate != nil && at.After(*a.EndDate) {
			continue
		}
		rule, ok := r.rules[a.RuleID]
		if !ok || !rule.IsActive {
			continue
		}
		return rule, nil
	}
	return schedule.ShiftRule{}, schedule.ErrNoActiveShiftRule
}

func (r *ShiftRuleRepository) Assign(_ context.Context, employeeID, ruleID string, from time.Time) (schedule.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[ruleID]; !ok {
		return schedule.Assignment{}, schedule.ErrShiftRuleNotFound
	}
	// Close any open assignment the day before the new one starts.
	for i := range r.assignments {
		a := &r.assignments[i]
		if a.EmployeeID == employeeID && a.EndDate == nil {
			end := from.AddDate(0, 0, -1)
			a.EndDate = &end
		}
	}
	r.nextID++
	a := schedule.Assignment{
		ID:         fmt.Sprintf("assign-%04d", r.nextID),
		EmployeeID: employeeID,
		RuleID:     ruleID,
		StartDate:  from,
		CreatedAt:  time.Now().UTC(),
	}
	r.assignments = append(r.assignments, a)
	return a, nil
}

// ========================================
// TIME BANK REPOSITORY
// ========================================

type TimeBankRepository struct {
	mu      sync.RWMutex
	entries []timebank.TimeBankEntry
}

func NewTimeBankRepository() *TimeBankRepository {
	return &TimeBankRepository{}
}

func (r *TimeBankRepository) Append(_ context.Context, entry timebank.TimeBankEntry) (timebank.TimeBankEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *TimeBankRepository) Balance(_ context.Context, employeeID string, asOf time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := 0
	for _, e := range r.entries {
		if e.EmployeeID != employeeID {
			continue
		}
		if !asOf.IsZero() && e.CreatedAt.After(asOf) {
			continue
		}
		sum += e.DeltaMinutes
	}
	return sum, nil
}

func (r *TimeBankRepository) SumBySource(_ context.Context, employeeID string, sourceDate time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := 0
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && dayKey(e.SourceDate) == dayKey(sourceDate) {
			sum += e.DeltaMinutes
		}
	}
	return sum, nil
}

func (r *TimeBankRepository) LatestBySource(_ context.Context, employeeID string, sourceDate time.Time) (*timebank.TimeBankEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EmployeeID == employeeID && dayKey(e.SourceDate) == dayKey(sourceDate) {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *TimeBankRepository) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]timebank.TimeBankEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []timebank.TimeBankEntry
	for _, e := range r.entries {
		if e.EmployeeID != employeeID {
			continue
		}
		if !from.IsZero() && e.SourceDate.Before(from) {
			continue
		}
		if !to.IsZero() && e.SourceDate.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ========================================
// AUDIT REPOSITORY
// ========================================

type AuditRepository struct {
	mu      sync.RWMutex
	records []audit.AuditRecord
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, record audit.AuditRecord) (audit.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, record)
	return record, nil
}

func (r *AuditRepository) ListByTarget(_ context.Context, targetType, targetID string) ([]audit.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []audit.AuditRecord
	for _, rec := range r.records {
		if rec.TargetType == targetType && rec.TargetID == targetID {
			out = append(out, rec)
		}
	}
	return out, nil
}

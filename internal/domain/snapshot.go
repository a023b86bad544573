package domain

import (
	"sort"
	"strconv"
	"strings"
)

type StatusFilter string

const (
	FilterAll   StatusFilter = "all"
	FilterOK    StatusFilter = "ok"
	FilterError StatusFilter = "error"
)

func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterOK:
		return FilterOK, true
	case FilterError, "broken":
		return FilterError, true
	}
	return "", false
}

type RecordStatus struct {
	ImageReference
	Status ValidationStatus `json:"status"`
}

// Snapshot is the result of one load-and-validate pass over the table.
// It is never modified after NewSnapshot returns.
type Snapshot struct {
	records []RecordStatus
}

// NewSnapshot pairs every reference with its status and orders the result
// by record id (numeric ids compare numerically). References missing from
// statuses are marked unknown.
func NewSnapshot(refs []ImageReference, statuses map[string]ValidationStatus) Snapshot {
	records := make([]RecordStatus, 0, len(refs))
	for _, ref := range refs {
		status, ok := statuses[ref.RecordID]
		if !ok {
			status = StatusUnknown
		}
		records = append(records, RecordStatus{ImageReference: ref, Status: status})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return lessID(records[i].RecordID, records[j].RecordID)
	})
	return Snapshot{records: records}
}

func (s Snapshot) Len() int {
	return len(s.records)
}

// Records returns a copy of the snapshot rows.
func (s Snapshot) Records() []RecordStatus {
	out := make([]RecordStatus, len(s.records))
	copy(out, s.records)
	return out
}

func (s Snapshot) Find(recordID string) (RecordStatus, bool) {
	for _, r := range s.records {
		if r.RecordID == recordID {
			return r, true
		}
	}
	return RecordStatus{}, false
}

// FilterSnapshot returns the rows of s matching filter.
func FilterSnapshot(s Snapshot, filter StatusFilter) []RecordStatus {
	out := make([]RecordStatus, 0, len(s.records))
	for _, r := range s.records {
		switch filter {
		case FilterOK:
			if r.Status != StatusOK {
				continue
			}
		case FilterError:
			if !r.Status.IsBroken() {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func lessID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// Package audit keeps the journal of workflow actions taken through the
// gateway: who moved which record from which status to which.
package audit

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// Entry is one journaled workflow action.
type Entry struct {
	ID       int64           `json:"id"`
	ActorID  int64           `json:"actor_id"`
	Role     workflow.Role   `json:"role"`
	Kind     workflow.Kind   `json:"kind"`
	EntityID int64           `json:"entity_id"`
	Action   workflow.Action `json:"action"`
	From     workflow.Status `json:"from"`
	To       workflow.Status `json:"to"`
	Reason   string          `json:"reason,omitempty"`
	Remarks  string          `json:"remarks,omitempty"`
	At       time.Time       `json:"at"`
}

func (e Entry) validate() error {
	if e.Kind == "" || e.EntityID == 0 || e.Action == "" {
		return errors.New("audit: entry requires kind, entity id and action")
	}
	if e.ActorID == 0 {
		return errors.New("audit: actor required")
	}
	return nil
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Filters narrows a timeline query.
type Filters struct {
	Kind     workflow.Kind
	EntityID int64
	ActorID  int64
	Action   workflow.Action
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

func (f Filters) window() (page, size, offset int) {
	size = f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page = f.Page
	if page <= 0 {
		page = 1
	}
	return page, size, (page - 1) * size
}

// Paging is simple next/prev metadata.
type Paging struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result is one page of the timeline, newest first.
type Result struct {
	Entries []Entry `json:"entries"`
	Paging  Paging  `json:"paging"`
}

// paginate trims a window fetched with size+1 rows.
func paginate(rows []Entry, page, size int) Result {
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	paging := Paging{Page: page, PageSize: size, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	if rows == nil {
		rows = []Entry{}
	}
	return Result{Entries: rows, Paging: paging}
}

// MemoryJournal keeps entries in process memory.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewMemoryJournal constructs an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{now: time.Now}
}

// Record appends entry.
func (j *MemoryJournal) Record(ctx context.Context, entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry.At.IsZero() {
		entry.At = j.now()
	}
	entry.ID = int64(len(j.entries) + 1)
	j.entries = append(j.entries, entry)
	return nil
}

// Timeline returns matching entries, newest first.
func (j *MemoryJournal) Timeline(ctx context.Context, f Filters) (Result, error) {
	page, size, offset := f.window()
	j.mu.RLock()
	matched := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if f.matches(e) {
			matched = append(matched, e)
		}
	}
	j.mu.RUnlock()
	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].At.Equal(matched[b].At) {
			return matched[a].ID > matched[b].ID
		}
		return matched[a].At.After(matched[b].At)
	})
	if offset >= len(matched) {
		return paginate(nil, page, size), nil
	}
	end := min(offset+size+1, len(matched))
	return paginate(slices.Clone(matched[offset:end]), page, size), nil
}

func (f Filters) matches(e Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.EntityID != 0 && e.EntityID != f.EntityID {
		return false
	}
	if f.ActorID != 0 && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && !strings.EqualFold(string(e.Action), string(f.Action)) {
		return false
	}
	if !f.From.IsZero() && e.At.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.At.After(f.To) {
		return false
	}
	return true
}

package emailbuilder

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// MaxHistoryEntries bounds the history log. Older entries are dropped, so
// undoing past the truncation point is not possible.
const MaxHistoryEntries = 50

// Clock supplies timestamps to the history log so tests can control time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

// ManualClock is a Clock whose time only moves when told to.
type ManualClock struct {
	current time.Time
}

// NewManualClock returns a clock pinned at the given instant.
func NewManualClock(at time.Time) *ManualClock {
	return &ManualClock{current: at}
}

func (c *ManualClock) Now() time.Time { return c.current }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

// Set pins the clock at the given instant.
func (c *ManualClock) Set(at time.Time) { c.current = at }

// HistoryEntry is one recorded template version with its change summary.
type HistoryEntry struct {
	Template    *Template `json:"template"`
	Timestamp   time.Time `json:"timestamp"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description"`
	Changes     []Change  `json:"changes"`
	IsAutoSave  bool      `json:"isAutoSave"`
}

// History is an append-only log of template snapshots with a movable cursor
// for undo and redo. Snapshots are deep copies, so entries stay frozen no
// matter what callers do with the templates they hand in or get back.
type History struct {
	entries []HistoryEntry
	cursor  int
	clock   Clock
}

// NewHistory returns an empty log. A nil clock means wall-clock time.
func NewHistory(clock Clock) *History {
	if clock == nil {
		clock = NewClock()
	}
	return &History{cursor: -1, clock: clock}
}

// Record diffs the template against the entry at the cursor and appends a
// new entry. Recording after an undo discards the redo tail. An auto-save
// with an empty diff records nothing and returns false.
func (h *History) Record(t *Template, author, description string, isAutoSave bool) bool {
	if t == nil {
		return false
	}

	var prev *Template
	if h.cursor >= 0 {
		prev = h.entries[h.cursor].Template
	}

	now := h.clock.Now()
	changes := DiffTemplates(prev, t, now, author)
	if isAutoSave && len(changes) == 0 {
		return false
	}
	if description == "" {
		description = summarizeChanges(changes, isAutoSave)
	}

	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, HistoryEntry{
		Template:    t.Clone(),
		Timestamp:   now,
		Author:      author,
		Description: description,
		Changes:     changes,
		IsAutoSave:  isAutoSave,
	})
	if len(h.entries) > MaxHistoryEntries {
		h.entries = h.entries[len(h.entries)-MaxHistoryEntries:]
	}
	h.cursor = len(h.entries) - 1
	return true
}

// Undo moves the cursor back one entry and returns a copy of the template
// there. It returns false when there is nothing earlier to move to.
func (h *History) Undo() (*Template, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor].Template.Clone(), true
}

// Redo moves the cursor forward one entry and returns a copy of the
// template there.
func (h *History) Redo() (*Template, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor].Template.Clone(), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Current returns a copy of the template at the cursor.
func (h *History) Current() (*Template, bool) {
	if h.cursor < 0 {
		return nil, false
	}
	return h.entries[h.cursor].Template.Clone(), true
}

// Len reports how many entries the log holds.
func (h *History) Len() int { return len(h.entries) }

// Entries returns the log in order, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// DiffTemplates compares two template versions field by field and returns
// the audit records describing what changed. A nil prev marks the first
// recorded version.
func DiffTemplates(prev, next *Template, at time.Time, author string) []Change {
	if next == nil {
		return nil
	}
	if prev == nil {
		return []Change{{
			Type:        ChangeTemplateSettings,
			Description: "Initial version",
			Timestamp:   at,
			Author:      author,
		}}
	}

	var changes []Change
	add := func(c Change) {
		c.Timestamp = at
		c.Author = author
		changes = append(changes, c)
	}

	if prev.Name != next.Name {
		add(Change{
			Type:        ChangeTemplateSettings,
			Description: fmt.Sprintf("Renamed template from %q to %q", prev.Name, next.Name),
			Data:        map[string]interface{}{"from": prev.Name, "to": next.Name},
		})
	}
	if prev.Subject != next.Subject {
		add(Change{
			Type:        ChangeTemplateSettings,
			Description: "Changed subject line",
			Data:        map[string]interface{}{"from": prev.Subject, "to": next.Subject},
		})
	}

	prevNodes := CollectIDs(prev.Components)
	nextNodes := CollectIDs(next.Components)

	for _, id := range sortedIDs(nextNodes) {
		node := nextNodes[id]
		if _, ok := prevNodes[id]; !ok {
			add(Change{
				Type:        ChangeComponentAdd,
				Description: fmt.Sprintf("Added %s", DisplayName(node.Type)),
				ComponentID: id,
			})
		}
	}
	for _, id := range sortedIDs(prevNodes) {
		node := prevNodes[id]
		if _, ok := nextNodes[id]; !ok {
			add(Change{
				Type:        ChangeComponentRemove,
				Description: fmt.Sprintf("Removed %s", DisplayName(node.Type)),
				ComponentID: id,
			})
		}
	}

	// Nodes present in both versions: compare content, styles and the
	// editable flags separately so each gets its own change type.
	for _, id := range sortedIDs(nextNodes) {
		after := nextNodes[id]
		before, ok := prevNodes[id]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(before.Content, after.Content) {
			add(Change{
				Type:        ChangeContent,
				Description: fmt.Sprintf("Edited %s content", DisplayName(after.Type)),
				ComponentID: id,
			})
		}
		if !reflect.DeepEqual(before.Styles, after.Styles) {
			add(Change{
				Type:        ChangeStyle,
				Description: fmt.Sprintf("Restyled %s", DisplayName(after.Type)),
				ComponentID: id,
			})
		}
		if before.Name != after.Name || before.Locked != after.Locked || before.Hidden != after.Hidden {
			add(Change{
				Type:        ChangeComponentUpdate,
				Description: fmt.Sprintf("Updated %s", DisplayName(after.Type)),
				ComponentID: id,
			})
		}
	}

	return changes
}

func sortedIDs(nodes map[string]*ComponentNode) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func summarizeChanges(changes []Change, isAutoSave bool) string {
	if len(changes) == 0 {
		if isAutoSave {
			return "Auto-save"
		}
		return "Manual save"
	}
	if len(changes) == 1 {
		return changes[0].Description
	}
	parts := make([]string, 0, 3)
	for i, c := range changes {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(changes)-3))
			break
		}
		parts = append(parts, c.Description)
	}
	return strings.Join(parts, ", ")
}

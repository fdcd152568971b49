package query

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/registry"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// Engine joins the log table with the registry.
type Engine struct {
	journal  *journal.Journal
	registry *registry.Registry
	logger   logpkg.Logger
}

// New creates an Engine with a default logger.
func New(j *journal.Journal, r *registry.Registry) *Engine {
	return NewWithLogger(j, r, nil)
}

// NewWithLogger creates an Engine with a custom logger.
func NewWithLogger(j *journal.Journal, r *registry.Registry, logger logpkg.Logger) *Engine {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Engine{journal: j, registry: r, logger: logger.With(logpkg.Component("query"))}
}

// LoadAll reads every committed log, joins it with the current canonical
// record of its type, sorts newest first and publishes the result into the
// journal's log list. Logs whose type cannot be resolved are skipped.
func (e *Engine) LoadAll(ctx context.Context) ([]journal.Log, error) {
	stored, err := e.journal.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	logs := make([]journal.Log, 0, len(stored))
	for _, s := range stored {
		lt, err := e.registry.Lookup(s.LogTypeID)
		if err != nil {
			e.logger.Warn("skipping log with unresolved type", logpkg.Str("log", s.ID), logpkg.Str("type", s.LogTypeID), logpkg.Err(err))
			continue
		}
		l, err := journal.Deserialize(s, lt)
		if err != nil {
			e.logger.Warn("skipping undecodable log", logpkg.Str("log", s.ID), logpkg.Err(err))
			continue
		}
		logs = append(logs, l)
	}
	SortNewestFirst(logs)
	e.journal.SetLogs(logs)
	return logs, nil
}

// SortNewestFirst orders logs by createAt descending. Ties keep id order
// descending so the result is deterministic.
func SortNewestFirst(logs []journal.Log) {
	slices.SortStableFunc(logs, func(a, b journal.Log) int {
		if c := b.CreateAt.Compare(a.CreateAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}

// Filter selects logs. Every set criterion must hold.
type Filter struct {
	// Contain is matched case-insensitively against content.
	Contain string
	// LogTypes restricts to these canonical log type ids when non-empty.
	LogTypes []string
	// From and To bound createAt inclusively. Zero means unbounded.
	From time.Time
	To   time.Time
	// Where is an optional CEL expression over content, type_id, type_name,
	// create_ms, values, fields and now_ms.
	Where string
}

// Empty reports whether f passes everything.
func (f Filter) Empty() bool {
	return f.Contain == "" && len(f.LogTypes) == 0 && f.From.IsZero() && f.To.IsZero() && strings.TrimSpace(f.Where) == ""
}

// Predicate is a compiled Filter.
type Predicate struct {
	filter  Filter
	contain string
	types   map[string]struct{}
	where   celFilter
}

// Compile validates f. Only the Where expression can fail.
func Compile(f Filter) (*Predicate, error) {
	where, err := newCELFilter(f.Where)
	if err != nil {
		return nil, err
	}
	p := &Predicate{filter: f, contain: strings.ToLower(f.Contain), where: where}
	if len(f.LogTypes) > 0 {
		p.types = make(map[string]struct{}, len(f.LogTypes))
		for _, id := range f.LogTypes {
			p.types[logtype.CanonicalID(id)] = struct{}{}
		}
	}
	return p, nil
}

// Match reports whether l passes.
func (p *Predicate) Match(l journal.Log) bool {
	if p.filter.Empty() {
		return true
	}
	if p.contain != "" && !strings.Contains(strings.ToLower(l.Content), p.contain) {
		return false
	}
	if p.types != nil {
		if _, ok := p.types[logtype.CanonicalID(l.LogType.ID)]; !ok {
			return false
		}
	}
	if !p.filter.From.IsZero() && l.CreateAt.Before(p.filter.From) {
		return false
	}
	if !p.filter.To.IsZero() && l.CreateAt.After(p.filter.To) {
		return false
	}
	return p.where.Eval(l)
}

// Apply returns the logs passing f in their input order.
func Apply(logs []journal.Log, f Filter) ([]journal.Log, error) {
	p, err := Compile(f)
	if err != nil {
		return nil, err
	}
	out := make([]journal.Log, 0, len(logs))
	for _, l := range logs {
		if p.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// DateLayout is the section key format.
const DateLayout = "2006-01-02"

// Section is the logs of one calendar date.
type Section struct {
	Date string        `json:"date"`
	Logs []journal.Log `json:"logs"`
}

// SectionByDate groups logs by the calendar date of createAt in loc. Groups
// appear in the order their first log appears. A nil loc means UTC.
func SectionByDate(logs []journal.Log, loc *time.Location) []Section {
	if loc == nil {
		loc = time.UTC
	}
	var out []Section
	index := map[string]int{}
	for _, l := range logs {
		day := l.CreateAt.In(loc).Format(DateLayout)
		i, ok := index[day]
		if !ok {
			i = len(out)
			index[day] = i
			out = append(out, Section{Date: day})
		}
		out[i].Logs = append(out[i].Logs, l)
	}
	return out
}

// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"github.com/rzbill/logbook/internal/logtype"
)

// LogType is a log type as served by the API.
type LogType struct {
	logtype.SerializedLogType
	NeedsInput bool `json:"needsInput"`
}

// Revisions lists the snapshots of one log type, newest first.
type Revisions struct {
	ID        string    `json:"id"`
	Revision  int       `json:"revision"`
	Revisions []LogType `json:"revisions"`
}

// Diff is a placeholder diff between two states of a log type.
type Diff struct {
	From    string                      `json:"from"`
	To      string                      `json:"to"`
	Changes []logtype.PlaceholderChange `json:"changes"`
}

// Value is the value entered for one placeholder.
type Value struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Log is a committed log joined with its log type.
type Log struct {
	ID                string  `json:"id"`
	LogTypeID         string  `json:"logTypeId"`
	RevisionID        string  `json:"revisionId"`
	Name              string  `json:"name"`
	Color             string  `json:"color"`
	Icon              string  `json:"icon,omitempty"`
	CreateAt          string  `json:"createAt"`
	Content           string  `json:"content"`
	PlaceholderValues []Value `json:"placeholderValues"`
}

// Section is the logs of one calendar date.
type Section struct {
	Date string `json:"date"`
	Logs []Log  `json:"logs"`
}

// CommitRequest describes a log to commit. Values are keyed by placeholder
// id. Quick commits the default log of a type that needs no input.
type CommitRequest struct {
	LogTypeID string            `json:"logTypeId"`
	Values    map[string]string `json:"values,omitempty"`
	CreateAt  string            `json:"createAt,omitempty"`
	Quick     bool              `json:"quick,omitempty"`
}

// LogFilter mirrors the list query parameters.
type LogFilter struct {
	Contain string
	Types   []string
	From    string
	To      string
	Where   string
	Limit   int
}

// Transport abstracts the transport used by the CLI.
type Transport interface {
	ListLogTypes(ctx context.Context, archived bool) ([]LogType, error)
	CreateLogType(ctx context.Context, name string) (LogType, error)
	GetLogType(ctx context.Context, id string) (LogType, error)
	PatchLogType(ctx context.Context, id string, mergePatch []byte) (LogType, error)
	SetArchived(ctx context.Context, id string, archived bool) (LogType, error)
	Revisions(ctx context.Context, id string) (Revisions, error)
	Diff(ctx context.Context, id, from, to string) (Diff, error)

	AddPlaceholder(ctx context.Context, id, kind, name string) (logtype.Placeholder, error)
	UpdatePlaceholder(ctx context.Context, id, pid string, patch logtype.PlaceholderPatch) (logtype.Placeholder, error)
	RemovePlaceholder(ctx context.Context, id, pid string) error
	MovePlaceholder(ctx context.Context, id, pid string, index int) error

	Commit(ctx context.Context, req CommitRequest) (Log, error)
	ListLogs(ctx context.Context, f LogFilter) ([]Log, error)
	Sections(ctx context.Context, f LogFilter) ([]Section, error)
	History(ctx context.Context, pid string, limit int) ([]string, error)

	Seed(ctx context.Context) ([]LogType, error)
	Generate(ctx context.Context, count, days int) (int, error)
	Clear(ctx context.Context, all bool) error
	Reset(ctx context.Context) ([]LogType, error)
}

package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/pkg/id"
)

// PlaceholderValue is the value entered for one placeholder.
type PlaceholderValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Log is one journal entry. LogType is the schema the log is bound to, which
// is not necessarily the latest state of that type.
type Log struct {
	ID                string
	LogType           logtype.LogType
	CreateAt          time.Time
	PlaceholderValues []PlaceholderValue
	Content           string
	RevisionID        string
}

// SerializedLog is the stored form of a Log. The schema is referenced by
// canonical id, fingerprint and revision id instead of being embedded.
type SerializedLog struct {
	ID                string             `json:"id"`
	LogTypeID         string             `json:"logTypeId"`
	LogTypeHash       string             `json:"logTypeHash"`
	CreateAt          string             `json:"createAt"`
	PlaceholderValues []PlaceholderValue `json:"placeholderValues"`
	Content           string             `json:"content"`
	RevisionID        string             `json:"revisionId"`
}

// Content renders values space-joined in order.
func Content(values []PlaceholderValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.Value
	}
	return strings.Join(parts, " ")
}

// MakeDefault builds a draft log for lt. Static placeholders take their
// literal content, every other placeholder starts empty.
func MakeDefault(lt logtype.LogType, now time.Time) Log {
	values := make([]PlaceholderValue, len(lt.Placeholders))
	for i, p := range lt.Placeholders {
		values[i] = PlaceholderValue{ID: p.ID, Value: defaultValue(p)}
	}
	return Log{
		ID:                id.New(),
		LogType:           lt.Clone(),
		CreateAt:          now.UTC().Truncate(time.Millisecond),
		PlaceholderValues: values,
		Content:           Content(values),
	}
}

func defaultValue(p logtype.Placeholder) string {
	if p.Kind.NeedsInput() {
		return ""
	}
	return p.Content
}

// SetValue sets the value of placeholder pid and recomputes Content.
func SetValue(l Log, pid, value string) (Log, error) {
	values := append([]PlaceholderValue(nil), l.PlaceholderValues...)
	for i := range values {
		if values[i].ID == pid {
			values[i].Value = value
			l.PlaceholderValues = values
			l.Content = Content(values)
			return l, nil
		}
	}
	return l, fmt.Errorf("set value %q: %w", pid, logtype.ErrPlaceholderNotFound)
}

// Value returns the value recorded for pid.
func (l Log) Value(pid string) (string, bool) {
	for _, v := range l.PlaceholderValues {
		if v.ID == pid {
			return v.Value, true
		}
	}
	return "", false
}

// alignValues orders values by schema, drops values for unknown placeholders
// and fills missing ones with their defaults. Static placeholders always
// carry their literal content.
func alignValues(schema logtype.LogType, values []PlaceholderValue) []PlaceholderValue {
	given := make(map[string]string, len(values))
	for _, v := range values {
		given[v.ID] = v.Value
	}
	out := make([]PlaceholderValue, len(schema.Placeholders))
	for i, p := range schema.Placeholders {
		v, ok := given[p.ID]
		if !ok || !p.Kind.NeedsInput() {
			v = defaultValue(p)
		}
		out[i] = PlaceholderValue{ID: p.ID, Value: v}
	}
	return out
}

// Serialize converts l to its stored form, bound to revisionID and hash.
func Serialize(l Log, revisionID, hash string) SerializedLog {
	values := append([]PlaceholderValue(nil), l.PlaceholderValues...)
	if values == nil {
		values = []PlaceholderValue{}
	}
	return SerializedLog{
		ID:                l.ID,
		LogTypeID:         logtype.CanonicalID(l.LogType.ID),
		LogTypeHash:       hash,
		CreateAt:          logtype.FormatTime(l.CreateAt),
		PlaceholderValues: values,
		Content:           l.Content,
		RevisionID:        revisionID,
	}
}

// Deserialize rebuilds a Log from its stored form and the schema it should
// carry.
func Deserialize(s SerializedLog, lt logtype.LogType) (Log, error) {
	createAt, err := logtype.ParseTime(s.CreateAt)
	if err != nil {
		return Log{}, fmt.Errorf("log %s createAt: %w", s.ID, err)
	}
	values := append([]PlaceholderValue(nil), s.PlaceholderValues...)
	if values == nil {
		values = []PlaceholderValue{}
	}
	return Log{
		ID:                s.ID,
		LogType:           lt.Clone(),
		CreateAt:          createAt,
		PlaceholderValues: values,
		Content:           s.Content,
		RevisionID:        s.RevisionID,
	}, nil
}

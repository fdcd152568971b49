package logtype

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 form of every stored timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultName is the name of a freshly constructed log type.
const DefaultName = "New Log Type"

// Palette is the set of color names a log type may carry.
var Palette = []string{"red", "orange", "yellow", "green", "teal", "blue", "violet", "pink"}

// LogType is a user-defined template for journal entries.
type LogType struct {
	ID           string
	Name         string
	Placeholders []Placeholder
	Color        string
	Icon         string
	Revision     int
	CreateAt     time.Time
	UpdateAt     time.Time
	ArchiveAt    *time.Time
}

// IsRevision reports whether lt is a revision snapshot rather than a
// canonical record.
func (lt LogType) IsRevision() bool { return IsRevisionID(lt.ID) }

// CanonicalID returns the id of the canonical record lt belongs to.
func (lt LogType) CanonicalID() string { return CanonicalID(lt.ID) }

// Archived reports whether lt is archived.
func (lt LogType) Archived() bool { return lt.ArchiveAt != nil }

// NeedsInput reports whether committing a log of this type needs any user
// input.
func (lt LogType) NeedsInput() bool {
	for _, p := range lt.Placeholders {
		if p.Kind.NeedsInput() {
			return true
		}
	}
	return false
}

// Placeholder returns the placeholder with id pid.
func (lt LogType) Placeholder(pid string) (Placeholder, bool) {
	for _, p := range lt.Placeholders {
		if p.ID == pid {
			return p, true
		}
	}
	return Placeholder{}, false
}

// Clone returns a deep copy of lt.
func (lt LogType) Clone() LogType {
	out := lt
	out.Placeholders = clonePlaceholders(lt.Placeholders)
	if lt.ArchiveAt != nil {
		t := *lt.ArchiveAt
		out.ArchiveAt = &t
	}
	return out
}

// IsRevisionID reports whether id names a revision snapshot ("id:N").
func IsRevisionID(id string) bool { return strings.Contains(id, ":") }

// CanonicalID strips a ":N" revision suffix.
func CanonicalID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}

// RevisionID returns the snapshot id for revision n of canonical.
func RevisionID(canonical string, n int) string {
	return CanonicalID(canonical) + ":" + strconv.Itoa(n)
}

// ParseRevisionID splits "id:N". ok is false for canonical ids and malformed
// suffixes.
func ParseRevisionID(s string) (canonical string, n int, ok bool) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 {
		return s[:i], 0, false
	}
	return s[:i], n, true
}

// Fingerprint digests the schema identity of lt: canonical id, updateAt in
// milliseconds and the ordered placeholder ids.
func Fingerprint(lt LogType) string {
	h := sha256.New()
	h.Write([]byte(CanonicalID(lt.ID)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(lt.UpdateAt.UnixMilli(), 10)))
	for _, p := range lt.Placeholders {
		h.Write([]byte{0})
		h.Write([]byte(p.ID))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Default builds a fresh, unpersisted log type with two starter placeholders.
func Default(id string, now time.Time) LogType {
	return LogType{
		ID:   id,
		Name: DefaultName,
		Placeholders: []Placeholder{
			NewPlaceholder(KindText, ""),
			NewPlaceholder(KindTextInput, ""),
		},
		Color:    RandomColor(),
		Revision: 0,
		CreateAt: now,
		UpdateAt: now,
	}
}

// RandomColor picks a palette color.
func RandomColor() string { return Palette[rand.IntN(len(Palette))] }

// SerializedLogType is the stored form of a LogType.
type SerializedLogType struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Placeholders []Placeholder `json:"placeholders"`
	Color        string        `json:"color"`
	Icon         string        `json:"icon,omitempty"`
	Revision     int           `json:"revision"`
	CreateAt     string        `json:"createAt"`
	UpdateAt     string        `json:"updateAt"`
	ArchiveAt    string        `json:"archiveAt,omitempty"`
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTime parses TimeLayout, accepting any RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Serialize converts lt to its stored form.
func Serialize(lt LogType) SerializedLogType {
	s := SerializedLogType{
		ID:           lt.ID,
		Name:         lt.Name,
		Placeholders: clonePlaceholders(lt.Placeholders),
		Color:        lt.Color,
		Icon:         lt.Icon,
		Revision:     lt.Revision,
		CreateAt:     FormatTime(lt.CreateAt),
		UpdateAt:     FormatTime(lt.UpdateAt),
	}
	if s.Placeholders == nil {
		s.Placeholders = []Placeholder{}
	}
	if lt.ArchiveAt != nil {
		s.ArchiveAt = FormatTime(*lt.ArchiveAt)
	}
	return s
}

// Deserialize converts a stored record back into a LogType.
func Deserialize(s SerializedLogType) (LogType, error) {
	createAt, err := ParseTime(s.CreateAt)
	if err != nil {
		return LogType{}, fmt.Errorf("logtype %s createAt: %w", s.ID, err)
	}
	updateAt, err := ParseTime(s.UpdateAt)
	if err != nil {
		return LogType{}, fmt.Errorf("logtype %s updateAt: %w", s.ID, err)
	}
	lt := LogType{
		ID:           s.ID,
		Name:         s.Name,
		Placeholders: clonePlaceholders(s.Placeholders),
		Color:        s.Color,
		Icon:         s.Icon,
		Revision:     s.Revision,
		CreateAt:     createAt,
		UpdateAt:     updateAt,
	}
	if lt.Placeholders == nil {
		lt.Placeholders = []Placeholder{}
	}
	if s.ArchiveAt != "" {
		at, err := ParseTime(s.ArchiveAt)
		if err != nil {
			return LogType{}, fmt.Errorf("logtype %s archiveAt: %w", s.ID, err)
		}
		lt.ArchiveAt = &at
	}
	return lt, nil
}

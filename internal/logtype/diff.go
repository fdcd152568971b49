package logtype

import (
	"reflect"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeType classifies one placeholder in a revision diff.
type ChangeType string

const (
	ChangeKept    ChangeType = "kept"
	ChangeChanged ChangeType = "changed"
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeMoved   ChangeType = "moved"
)

// PlaceholderChange is one row of a revision diff. From is nil for added
// placeholders and To is nil for removed ones.
type PlaceholderChange struct {
	Type ChangeType   `json:"type"`
	ID   string       `json:"id"`
	From *Placeholder `json:"from,omitempty"`
	To   *Placeholder `json:"to,omitempty"`
}

// DiffRevisions aligns the placeholder id sequences of two schema states and
// reports each placeholder as kept, changed, added, removed or moved. Rows
// follow the merged order of the alignment.
func DiffRevisions(from, to LogType) []PlaceholderChange {
	// private use area, so mapped ids never collide with surrogates
	const base = 0xE000
	m := map[string]rune{}
	runes := func(ps []Placeholder) []rune {
		out := make([]rune, len(ps))
		for i, p := range ps {
			r, ok := m[p.ID]
			if !ok {
				r = rune(base + len(m))
				m[p.ID] = r
			}
			out[i] = r
		}
		return out
	}
	fromRunes := runes(from.Placeholders)
	toRunes := runes(to.Placeholders)

	inFrom := map[string]Placeholder{}
	for _, p := range from.Placeholders {
		inFrom[p.ID] = p
	}
	inTo := map[string]Placeholder{}
	for _, p := range to.Placeholders {
		inTo[p.ID] = p
	}

	dmp := diffpatch.New()
	diffs := dmp.DiffMainRunes(fromRunes, toRunes, false)

	var out []PlaceholderChange
	fi, ti := 0, 0
	for _, d := range diffs {
		for range []rune(d.Text) {
			switch d.Type {
			case diffpatch.DiffEqual:
				f, t := from.Placeholders[fi], to.Placeholders[ti]
				typ := ChangeKept
				if !reflect.DeepEqual(normalize(f), normalize(t)) {
					typ = ChangeChanged
				}
				out = append(out, PlaceholderChange{Type: typ, ID: f.ID, From: &f, To: &t})
				fi++
				ti++
			case diffpatch.DiffDelete:
				f := from.Placeholders[fi]
				fi++
				if _, ok := inTo[f.ID]; ok {
					// reported where it lands
					continue
				}
				out = append(out, PlaceholderChange{Type: ChangeRemoved, ID: f.ID, From: &f})
			case diffpatch.DiffInsert:
				t := to.Placeholders[ti]
				ti++
				if f, ok := inFrom[t.ID]; ok {
					out = append(out, PlaceholderChange{Type: ChangeMoved, ID: t.ID, From: &f, To: &t})
					continue
				}
				out = append(out, PlaceholderChange{Type: ChangeAdded, ID: t.ID, To: &t})
			}
		}
	}
	return out
}

package logtype

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleLogType() LogType {
	at := time.Date(2024, 3, 9, 18, 30, 5, 123_000_000, time.UTC)
	return LogType{
		ID:   "t1",
		Name: "Fed cat",
		Placeholders: []Placeholder{
			{ID: "p1", Name: "intro", Kind: KindText, Content: "Fed cat"},
			{ID: "p2", Name: "food", Kind: KindSelect, Options: []string{"wet", "dry"}},
			{ID: "p3", Name: "grams", Kind: KindNumber},
			{ID: "p4", Name: "note", Kind: KindTextInput, Hint: "anything odd?"},
		},
		Color:     "teal",
		Icon:      "icons/cat.png",
		Revision:  2,
		CreateAt:  at,
		UpdateAt:  at.Add(time.Hour),
		ArchiveAt: &at,
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, lt := range []LogType{sampleLogType(), Default("fresh", time.Now().UTC().Truncate(time.Millisecond))} {
		b, err := json.Marshal(Serialize(lt))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var rec SerializedLogType
		if err := json.Unmarshal(b, &rec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got, err := Deserialize(rec)
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if diff := cmp.Diff(lt, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("round trip (-want +got):\n%s", diff)
		}
	}
}

func TestSerializedTimeLayout(t *testing.T) {
	s := Serialize(sampleLogType())
	if s.CreateAt != "2024-03-09T18:30:05.123Z" {
		t.Fatalf("createAt = %q", s.CreateAt)
	}
	if _, err := Deserialize(SerializedLogType{ID: "x", CreateAt: "yesterday", UpdateAt: s.UpdateAt}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFingerprint(t *testing.T) {
	lt := sampleLogType()
	h := Fingerprint(lt)
	if h != Fingerprint(lt.Clone()) {
		t.Fatalf("fingerprint not deterministic")
	}
	if len(h) != 64 {
		t.Fatalf("expected hex sha256, got %q", h)
	}

	renamed := lt.Clone()
	renamed.Name = "something else"
	renamed.Placeholders[1].Name = "kibble"
	renamed.Placeholders[1].Options = []string{"x"}
	if Fingerprint(renamed) != h {
		t.Fatalf("non-id fields must not affect the fingerprint")
	}

	reordered := lt.Clone()
	reordered.Placeholders[0], reordered.Placeholders[1] = reordered.Placeholders[1], reordered.Placeholders[0]
	if Fingerprint(reordered) == h {
		t.Fatalf("placeholder order must affect the fingerprint")
	}

	bumped := lt.Clone()
	bumped.UpdateAt = bumped.UpdateAt.Add(time.Millisecond)
	if Fingerprint(bumped) == h {
		t.Fatalf("updateAt must affect the fingerprint")
	}

	snap := lt.Clone()
	snap.ID = RevisionID(lt.ID, 3)
	if Fingerprint(snap) != h {
		t.Fatalf("snapshot of an unchanged schema must share its fingerprint")
	}
}

func TestRevisionIDs(t *testing.T) {
	if !IsRevisionID("abc:2") || IsRevisionID("abc") {
		t.Fatalf("IsRevisionID")
	}
	if CanonicalID("abc:2") != "abc" || CanonicalID("abc") != "abc" {
		t.Fatalf("CanonicalID")
	}
	if RevisionID("abc:4", 5) != "abc:5" {
		t.Fatalf("RevisionID = %q", RevisionID("abc:4", 5))
	}
	c, n, ok := ParseRevisionID("abc:12")
	if !ok || c != "abc" || n != 12 {
		t.Fatalf("ParseRevisionID = %q %d %v", c, n, ok)
	}
	if _, _, ok := ParseRevisionID("abc:x"); ok {
		t.Fatalf("expected malformed suffix to fail")
	}
}

func TestDefault(t *testing.T) {
	lt := Default("d", time.Now())
	if lt.Name != DefaultName || lt.Revision != 0 {
		t.Fatalf("unexpected default %+v", lt)
	}
	kinds := []Kind{}
	for _, p := range lt.Placeholders {
		kinds = append(kinds, p.Kind)
	}
	if diff := cmp.Diff([]Kind{KindText, KindTextInput}, kinds); diff != "" {
		t.Fatalf("kinds (-want +got):\n%s", diff)
	}
	found := false
	for _, c := range Palette {
		found = found || c == lt.Color
	}
	if !found {
		t.Fatalf("color %q not in palette", lt.Color)
	}
	if !lt.NeedsInput() {
		t.Fatalf("default type has an input placeholder")
	}
}

func TestKindDefaults(t *testing.T) {
	tests := []struct {
		kind Kind
		want Placeholder
	}{
		{KindText, Placeholder{ID: "p", Name: "n", Kind: KindText}},
		{KindTextInput, Placeholder{ID: "p", Name: "n", Kind: KindTextInput}},
		{KindSelect, Placeholder{ID: "p", Name: "n", Kind: KindSelect, Options: []string{DefaultOption}}},
		{KindNumber, Placeholder{ID: "p", Name: "n", Kind: KindNumber}},
	}
	start := Placeholder{ID: "p", Name: "n", Kind: KindText, Content: "x", Hint: "h", Options: []string{"a"}, Multiple: true}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := withKindDefaults(start, tt.kind)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("defaults (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Kind("slider").NeedsInput()
}

func TestNeedsInput(t *testing.T) {
	lt := LogType{Placeholders: []Placeholder{{ID: "a", Kind: KindText, Content: "Fed cat"}}}
	if lt.NeedsInput() {
		t.Fatalf("static-only type needs no input")
	}
	lt.Placeholders = append(lt.Placeholders, Placeholder{ID: "b", Kind: KindNumber})
	if !lt.NeedsInput() {
		t.Fatalf("number placeholder needs input")
	}
}

func TestPlaceholderPatchKindChange(t *testing.T) {
	p := Placeholder{ID: "p", Name: "mood", Kind: KindText, Content: "happy"}
	k := KindSelect
	got := PlaceholderPatch{Kind: &k, Content: ptr("ignored")}.apply(p)
	want := Placeholder{ID: "p", Name: "mood", Kind: KindSelect, Options: []string{DefaultOption}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patch (-want +got):\n%s", diff)
	}

	// same kind keeps fields
	got = PlaceholderPatch{Name: ptr("feeling"), Options: []string{"good", "bad"}}.apply(got)
	want = Placeholder{ID: "p", Name: "feeling", Kind: KindSelect, Options: []string{"good", "bad"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patch (-want +got):\n%s", diff)
	}
}

func ptr[T any](v T) *T { return &v }

package devdata

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/registry"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// ErrNoLogTypes is returned by Generate when there is no active log type to
// commit against.
var ErrNoLogTypes = errors.New("devdata: no active log types")

// DefaultWindow is how far back generated logs are spread.
const DefaultWindow = 14 * 24 * time.Hour

var places = []string{"home", "office", "central station", "airport", "park", "gym", "library"}

// Fixtures returns the sample log types written by Seed.
func Fixtures() []logtype.LogType {
	text := func(id, name, content string) logtype.Placeholder {
		return logtype.Placeholder{ID: id, Name: name, Kind: logtype.KindText, Content: content}
	}
	input := func(id, name string) logtype.Placeholder {
		return logtype.Placeholder{ID: id, Name: name, Kind: logtype.KindTextInput}
	}
	return []logtype.LogType{
		{
			ID: "seed-hungry", Name: "Hungry", Color: "yellow", Icon: "./Others/game.svg",
			Placeholders: []logtype.Placeholder{text("seed-hungry-text", "text", "Hungry")},
		},
		{
			ID: "seed-coffee", Name: "Coffee", Color: "green", Icon: "./Map/cup.svg",
			Placeholders: []logtype.Placeholder{
				text("seed-coffee-at", "text", "At"),
				{ID: "seed-coffee-place", Name: "place", Kind: logtype.KindSelect, Options: []string{"home", "office", "other"}},
				text("seed-coffee-had", "new text", "had a cup of"),
				{ID: "seed-coffee-kind", Name: "coffee", Kind: logtype.KindSelect, Options: []string{"black", "latte"}},
			},
		},
		{
			ID: "seed-subway", Name: "Subway", Color: "blue", Icon: "./Map/subway.svg",
			Placeholders: []logtype.Placeholder{
				text("seed-subway-from", "text", "From"),
				input("seed-subway-origin", "origin"),
				text("seed-subway-to", "new text", "to"),
				input("seed-subway-destination", "destination"),
			},
		},
		{
			ID: "seed-taxi", Name: "Taxi", Color: "red", Icon: "./Map/taxi.svg",
			Placeholders: []logtype.Placeholder{
				text("seed-taxi-from", "text", "From"),
				input("seed-taxi-origin", "origin"),
				text("seed-taxi-to", "new text", "to"),
				input("seed-taxi-destination", "destination"),
				text("seed-taxi-spent", "new text", "spent"),
				{ID: "seed-taxi-fare", Name: "fare", Kind: logtype.KindNumber},
			},
		},
		{
			ID: "seed-transform", Name: "Transform", Color: "violet", Icon: "./Design/magic.svg",
			Placeholders: []logtype.Placeholder{text("seed-transform-text", "text", "Transform")},
		},
	}
}

// Generator writes development data through the regular store and commit
// pipeline.
type Generator struct {
	types    *logtype.Store
	registry *registry.Registry
	journal  *journal.Journal
	logger   logpkg.Logger
	rnd      *rand.Rand
}

// New creates a Generator with a default logger.
func New(types *logtype.Store, reg *registry.Registry, j *journal.Journal) *Generator {
	return NewWithLogger(types, reg, j, nil)
}

// NewWithLogger creates a Generator with a custom logger.
func NewWithLogger(types *logtype.Store, reg *registry.Registry, j *journal.Journal, logger logpkg.Logger) *Generator {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Generator{
		types:    types,
		registry: reg,
		journal:  j,
		logger:   logger.With(logpkg.Component("devdata")),
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetRand replaces the random source.
func (g *Generator) SetRand(r *rand.Rand) { g.rnd = r }

// Seed writes the fixture log types, overwriting earlier seeds with the same
// ids, and refreshes the registry.
func (g *Generator) Seed(ctx context.Context) ([]logtype.LogType, error) {
	fixtures := Fixtures()
	out := make([]logtype.LogType, 0, len(fixtures))
	for _, f := range fixtures {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		lt, err := g.types.Update(f.ID, logtype.Patch{
			Name:         &f.Name,
			Placeholders: f.Placeholders,
			Color:        &f.Color,
			Icon:         &f.Icon,
		}, logtype.UpdateOptions{BumpTimestamp: true})
		if err != nil {
			return out, fmt.Errorf("seed %q: %w", f.ID, err)
		}
		out = append(out, lt)
	}
	if _, err := g.registry.Refresh(ctx); err != nil {
		return out, err
	}
	g.logger.Info("seeded log types", logpkg.Int("count", len(out)))
	return out, nil
}

// Generate commits n logs against random active log types with creation
// times spread over the last window. Input placeholders get random values.
func (g *Generator) Generate(ctx context.Context, n int, window time.Duration) ([]journal.Log, error) {
	types := g.registry.Active()
	if len(types) == 0 {
		return nil, ErrNoLogTypes
	}
	if window <= 0 {
		window = DefaultWindow
	}
	now := g.types.Now()
	out := make([]journal.Log, 0, n)
	for i := 0; i < n; i++ {
		lt := types[g.rnd.IntN(len(types))]
		l := g.journal.MakeDefault(lt)
		l.CreateAt = now.Add(-time.Duration(g.rnd.Int64N(int64(window))))
		for _, p := range lt.Placeholders {
			if !p.Kind.NeedsInput() {
				continue
			}
			var err error
			if l, err = journal.SetValue(l, p.ID, g.value(p)); err != nil {
				return out, err
			}
		}
		committed, err := g.journal.Commit(ctx, l)
		if err != nil {
			return out, err
		}
		out = append(out, committed)
	}
	g.logger.Info("generated logs", logpkg.Int("count", len(out)))
	return out, nil
}

func (g *Generator) value(p logtype.Placeholder) string {
	switch p.Kind {
	case logtype.KindSelect:
		if len(p.Options) == 0 {
			return ""
		}
		return p.Options[g.rnd.IntN(len(p.Options))]
	case logtype.KindNumber:
		return strconv.Itoa(1 + g.rnd.IntN(100))
	case logtype.KindTextInput:
		// half the time reuse something typed before
		if prev, err := g.journal.InputHistory(p.ID); err == nil && len(prev) > 0 && g.rnd.IntN(2) == 0 {
			return prev[g.rnd.IntN(len(prev))]
		}
		return places[g.rnd.IntN(len(places))]
	default:
		return p.Content
	}
}

// Clear removes every log, log index and input history entry.
func (g *Generator) Clear(ctx context.Context) error {
	return g.journal.ClearLogs(ctx)
}

// ClearAll removes the logs and every log type with its revisions.
func (g *Generator) ClearAll(ctx context.Context) error {
	if err := g.journal.ClearLogs(ctx); err != nil {
		return err
	}
	if err := g.types.Clear(ctx); err != nil {
		return err
	}
	_, err := g.registry.Refresh(ctx)
	return err
}

// Reset clears everything and writes the fixtures again.
func (g *Generator) Reset(ctx context.Context) ([]logtype.LogType, error) {
	if err := g.ClearAll(ctx); err != nil {
		return nil, err
	}
	return g.Seed(ctx)
}

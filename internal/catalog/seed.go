// Package catalog seeds the global task status and priority catalog.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// Seed is the catalog document.
type Seed struct {
	Statuses   []StatusEntry   `yaml:"statuses"`
	Priorities []PriorityEntry `yaml:"priorities"`
}

type StatusEntry struct {
	Name   string `yaml:"name"`
	Hidden bool   `yaml:"hidden"`
}

type PriorityEntry struct {
	Name   string `yaml:"name"`
	Level  int    `yaml:"level"`
	Hidden bool   `yaml:"hidden"`
}

// Default returns the built-in seed. It always contains NOT_STARTED and DONE.
func Default() (*Seed, error) {
	return Parse(defaultSeed)
}

// Parse decodes a seed document, rejecting unknown fields.
func Parse(data []byte) (*Seed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	return &s, nil
}

// Result reports how many entries EnsureSeed created.
type Result struct {
	StatusesCreated   int
	PrioritiesCreated int
}

// EnsureSeed creates every seed entry whose name is not in the catalog yet.
// Existing entries are left untouched, so running it repeatedly is safe.
func EnsureSeed(ctx context.Context, statuses store.TaskStatusStore, priorities store.TaskPriorityStore, seed *Seed, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "catalog_seed"))

	var res Result
	for _, e := range seed.Statuses {
		_, err := statuses.GetByName(ctx, e.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("failed to look up status %q: %w", e.Name, err)
		}

		st, err := domain.NewTaskStatus(e.Name)
		if err != nil {
			return res, err
		}
		st.Visible = !e.Hidden
		if err := statuses.Create(ctx, st); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return res, fmt.Errorf("failed to create status %q: %w", e.Name, err)
		}
		res.StatusesCreated++
		log.Info("seeded task status", slog.String("name", st.Name))
	}

	for _, e := range seed.Priorities {
		_, err := priorities.GetByName(ctx, e.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("failed to look up priority %q: %w", e.Name, err)
		}

		p, err := domain.NewTaskPriority(e.Name, e.Level)
		if err != nil {
			return res, err
		}
		p.Visible = !e.Hidden
		if err := priorities.Create(ctx, p); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return res, fmt.Errorf("failed to create priority %q: %w", e.Name, err)
		}
		res.PrioritiesCreated++
		log.Info("seeded task priority", slog.String("name", p.Name), slog.Int("level", p.Level))
	}

	return res, nil
}

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/tinytelemetry/odometer/internal/clock"
	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/model"
)

func newLocalSet(t *testing.T) *display.Set {
	t.Helper()
	set, err := display.New(display.Config{
		Base:     map[string]any{"active": false},
		Displays: []display.Spec{{Name: "hits"}, {Name: "timer"}},
		Clock:    clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("display.New: %v", err)
	}
	t.Cleanup(set.StopAll)
	return set
}

func TestBuildPages_OnePerDisplay(t *testing.T) {
	t.Parallel()

	pages, err := buildPages(newLocalSet(t), cliConfig{FrameInterval: model.DefaultFrameInterval}, "")
	if err != nil {
		t.Fatalf("buildPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].ID() != "hits" || pages[1].ID() != "timer" {
		t.Fatalf("unexpected page order: %s, %s", pages[0].ID(), pages[1].ID())
	}
}

func TestBuildPages_Only(t *testing.T) {
	t.Parallel()

	set := newLocalSet(t)
	pages, err := buildPages(set, cliConfig{FrameInterval: model.DefaultFrameInterval}, "timer")
	if err != nil {
		t.Fatalf("buildPages: %v", err)
	}
	if len(pages) != 1 || pages[0].ID() != "timer" {
		t.Fatalf("expected only timer page, got %d pages", len(pages))
	}

	if _, err := buildPages(set, cliConfig{}, "nope"); !errors.Is(err, display.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestIDGenerator_Generate(t *testing.T) {
	gen := NewIDGenerator()

	id := gen.Generate()

	if id == "" {
		t.Error("Generate() returned empty string")
	}

	for _, c := range id {
		if c < '0' || c > '9' {
			t.Errorf("Generate() returned non-numeric ID: %s", id)
			break
		}
	}
}

func TestIDGenerator_Unique(t *testing.T) {
	gen := NewIDGenerator()

	ids := make(map[string]bool)
	count := 10000

	for i := 0; i < count; i++ {
		id := gen.Generate()
		if ids[id] {
			t.Fatalf("Generate() produced duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestIDGenerator_Concurrent(t *testing.T) {
	gen := NewIDGenerator()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[string]bool)
	goroutines := 10
	idsPerGoroutine := 1000

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id := gen.Generate()
				mu.Lock()
				if ids[id] {
					t.Errorf("Generate() produced duplicate ID: %s", id)
				}
				ids[id] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if len(ids) != goroutines*idsPerGoroutine {
		t.Errorf("got %d unique ids, want %d", len(ids), goroutines*idsPerGoroutine)
	}
}

func TestIDGenerator_GenerateWithPrefix(t *testing.T) {
	gen := NewIDGenerator()

	id := gen.GenerateWithPrefix("rpt")

	if !strings.HasPrefix(id, "rpt_") {
		t.Errorf("GenerateWithPrefix() = %s, want rpt_ prefix", id)
	}
}

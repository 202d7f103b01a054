// Package utils provides hashing, retry, id generation, and event
// deduplication helpers for the submission pipeline.
package utils

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator generates unique ids using a snowflake-like layout:
// timestamp (41 bits) | machine (10 bits) | sequence (12 bits).
// Used for report and reward-ledger ids.
type IDGenerator struct {
	mu        sync.Mutex
	lastTime  int64
	sequence  int64
	machineID int64
}

// NewIDGenerator creates an ID generator with machine id 0.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorWithMachine(0)
}

// NewIDGeneratorWithMachine creates an ID generator for a specific replica.
func NewIDGeneratorWithMachine(machineID int64) *IDGenerator {
	return &IDGenerator{
		machineID: machineID & 0x3FF,
	}
}

// Generate returns a unique numeric id string.
func (g *IDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == g.lastTime {
		g.sequence++
		if g.sequence >= 4096 {
			for now <= g.lastTime {
				time.Sleep(time.Microsecond * 100)
				now = time.Now().UnixMilli()
			}
			g.sequence = 0
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	id := (now << 22) | (g.machineID << 12) | g.sequence

	return fmt.Sprintf("%d", id)
}

// GenerateWithPrefix returns a unique id with a type prefix, e.g. "rpt_…".
func (g *IDGenerator) GenerateWithPrefix(prefix string) string {
	return prefix + "_" + g.Generate()
}

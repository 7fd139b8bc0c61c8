// Package inventory defines the item-storage collaborator the engine talks
// to and an in-memory implementation for console play and tests.
package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nathoo/econcore/engine/ledger"
)

// Defaults for a Memory inventory.
const (
	DefaultSlots     = 36
	DefaultStackSize = 64
)

// Inventory is a player's item storage. Add and Remove are all-or-nothing.
type Inventory interface {
	Count(itemID string) int
	Remove(itemID string, count int) error
	Add(itemID string, count int) error
	FreeSlots() int
}

// Provider returns the inventory of a player.
type Provider interface {
	For(player string) Inventory
}

// Memory is a slot-limited in-memory inventory.
type Memory struct {
	slots     int
	stackSize int
	items     map[string]int
}

// NewMemory creates an empty inventory.
func NewMemory(slots, stackSize int) *Memory {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if stackSize <= 0 {
		stackSize = DefaultStackSize
	}
	return &Memory{slots: slots, stackSize: stackSize, items: map[string]int{}}
}

func (m *Memory) stacks(n int) int {
	return (n + m.stackSize - 1) / m.stackSize
}

func (m *Memory) used() int {
	total := 0
	for _, n := range m.items {
		total += m.stacks(n)
	}
	return total
}

// Count returns how many of an item the inventory holds.
func (m *Memory) Count(itemID string) int {
	return m.items[itemID]
}

// FreeSlots returns the number of empty slots.
func (m *Memory) FreeSlots() int {
	return m.slots - m.used()
}

// Add stores count items, failing without change when they do not fit.
func (m *Memory) Add(itemID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("add %d: %w", count, ledger.ErrInvalidAmount)
	}
	have := m.items[itemID]
	extra := m.stacks(have+count) - m.stacks(have)
	if extra > m.FreeSlots() {
		return ledger.ErrInventoryFull
	}
	m.items[itemID] = have + count
	return nil
}

// Remove takes count items, failing without change when there are fewer.
func (m *Memory) Remove(itemID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("remove %d: %w", count, ledger.ErrInvalidAmount)
	}
	have := m.items[itemID]
	if have < count {
		return ledger.ErrNotEnoughItems
	}
	if have == count {
		delete(m.items, itemID)
	} else {
		m.items[itemID] = have - count
	}
	return nil
}

// Items returns the item IDs held, sorted.
func (m *Memory) Items() []string {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MemoryProvider hands out one Memory inventory per player.
type MemoryProvider struct {
	mu        sync.Mutex
	slots     int
	stackSize int
	byPlayer  map[string]*Memory
}

// NewMemoryProvider creates a provider whose inventories share a shape.
func NewMemoryProvider(slots, stackSize int) *MemoryProvider {
	return &MemoryProvider{slots: slots, stackSize: stackSize, byPlayer: map[string]*Memory{}}
}

// For returns the player's inventory, creating an empty one.
func (p *MemoryProvider) For(player string) Inventory {
	return p.Memory(player)
}

// Memory is For with the concrete type.
func (p *MemoryProvider) Memory(player string) *Memory {
	p.mu.Lock()
	defer p.mu.Unlock()
	inv, ok := p.byPlayer[player]
	if !ok {
		inv = NewMemory(p.slots, p.stackSize)
		p.byPlayer[player] = inv
	}
	return inv
}

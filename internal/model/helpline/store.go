package helpline

import (
	"errors"
	"strings"
)

// ErrUnknownRegion is returned when no helpline is registered for a region.
var ErrUnknownRegion = errors.New("unknown helpline region")

// Store exposes helpline retrieval for handlers and the responder.
type Store interface {
	List() []Helpline
	FindByRegion(region string) (Helpline, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Helpline
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied helplines.
func NewMemoryStore(items []Helpline) *MemoryStore {
	return &MemoryStore{items: append([]Helpline(nil), items...)}
}

// List returns the helpline directory.
func (s *MemoryStore) List() []Helpline {
	return append([]Helpline(nil), s.items...)
}

// FindByRegion looks up a helpline by region, case-insensitively.
func (s *MemoryStore) FindByRegion(region string) (Helpline, bool) {
	region = strings.TrimSpace(region)
	for _, item := range s.items {
		if strings.EqualFold(item.Region, region) {
			return item, true
		}
	}
	return Helpline{}, false
}

// Resolve returns the helpline for region or ErrUnknownRegion.
func Resolve(store Store, region string) (Helpline, error) {
	if region == "" {
		region = DefaultRegion
	}
	item, ok := store.FindByRegion(region)
	if !ok {
		return Helpline{}, ErrUnknownRegion
	}
	return item, nil
}

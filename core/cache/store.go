// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"iter"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/naturalsort"
	"github.com/mitchellh/mapstructure"
	"github.com/mohae/deepcopy"

	"github.com/juju/jujugui/core/delta"
)

// Store is a typed mapping from id to entity for one entity kind.
//
// Values handed out by the store are deep copies; the only way to change
// stored state is through the mutating methods, which are reserved for the
// delta applier and the placement coordinator.
type Store[T any] struct {
	kind delta.Kind
	// fixup is called on every stored entity after data has been merged
	// into it, to maintain fields derived from the id.
	fixup func(id string, entity *T)

	mu       sync.RWMutex
	entities map[string]*T
	dirty    bool
}

func newStore[T any](kind delta.Kind, fixup func(string, *T)) *Store[T] {
	return &Store[T]{
		kind:     kind,
		fixup:    fixup,
		entities: make(map[string]*T),
	}
}

// Kind returns the entity kind held by the store.
func (s *Store[T]) Kind() delta.Kind {
	return s.kind
}

// Add creates the entity with the given id from data, or merges data into
// it if it already exists. Fields not mentioned in data are preserved.
// It reports whether a new entity was created.
func (s *Store[T]) Add(id string, data map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.entities[id]
	entity := new(T)
	if found {
		entity = deepcopy.Copy(existing).(*T)
	}
	if err := merge(entity, data); err != nil {
		return false, errors.Annotatef(err, "merging %s %q", s.kind, id)
	}
	if s.fixup != nil {
		s.fixup(id, entity)
	}
	s.entities[id] = entity
	s.dirty = true
	return !found, nil
}

// Update merges patch into the existing entity with the given id. It
// returns a NotFound error if there is no such entity.
func (s *Store[T]) Update(id string, patch map[string]interface{}) error {
	s.mu.RLock()
	_, found := s.entities[id]
	s.mu.RUnlock()
	if !found {
		return errors.NotFoundf("%s %q", s.kind, id)
	}
	_, err := s.Add(id, patch)
	return errors.Trace(err)
}

// Put stores entity under id, replacing anything already held.
func (s *Store[T]) Put(id string, entity T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := deepcopy.Copy(&entity).(*T)
	if s.fixup != nil {
		s.fixup(id, stored)
	}
	s.entities[id] = stored
	s.dirty = true
}

// Mutate applies fn to the stored entity with the given id and reports
// whether the entity exists.
func (s *Store[T]) Mutate(id string, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, found := s.entities[id]
	if !found {
		return false
	}
	fn(entity)
	if s.fixup != nil {
		s.fixup(id, entity)
	}
	s.dirty = true
	return true
}

// Remove deletes the entity with the given id. Removing a missing id is a
// no-op; it reports whether anything was removed.
func (s *Store[T]) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.entities[id]; !found {
		return false
	}
	delete(s.entities, id)
	s.dirty = true
	return true
}

// Get returns a copy of the entity with the given id. The boolean result
// is false if there is no such entity.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, found := s.entities[id]
	if !found {
		var zero T
		return zero, false
	}
	return *deepcopy.Copy(entity).(*T), true
}

// Contains reports whether an entity with the given id is stored.
func (s *Store[T]) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.entities[id]
	return found
}

// Filter returns the entities matching pred, in natural id order. The
// result is a snapshot taken when Filter is called, so it is unaffected
// by later mutation of the store. The sequence can only be ranged over
// once. A nil pred matches everything.
func (s *Store[T]) Filter(pred func(T) bool) iter.Seq[T] {
	snapshot := s.snapshot(pred)
	consumed := false
	return func(yield func(T) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, entity := range snapshot {
			if !yield(entity) {
				return
			}
		}
	}
}

// All returns a snapshot slice of the entities matching pred, in natural
// id order.
func (s *Store[T]) All(pred func(T) bool) []T {
	return s.snapshot(pred)
}

func (s *Store[T]) snapshot(pred func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []T
	for _, id := range s.sortedIds() {
		entity := *deepcopy.Copy(s.entities[id]).(*T)
		if pred == nil || pred(entity) {
			result = append(result, entity)
		}
	}
	return result
}

// Ids returns the ids of all stored entities, in natural order.
func (s *Store[T]) Ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedIds()
}

func (s *Store[T]) sortedIds() []string {
	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	return naturalsort.Sort(ids)
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Reset removes every entity from the store.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]*T)
	s.dirty = true
}

// Dirty reports whether the store has been mutated since the last call
// to ClearDirty.
func (s *Store[T]) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty mark.
func (s *Store[T]) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// merge decodes data onto entity. Fields present in data replace the
// entity's values wholesale (including maps and slices); absent fields
// are left untouched.
func merge(entity interface{}, data map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     entity,
		TagName:    "json",
		ZeroFields: true,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(decoder.Decode(data))
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package applier

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/juju/jujugui/core/delta"
)

// entityRef identifies an entity of the model.
type entityRef struct {
	kind delta.Kind
	id   string
}

func (r entityRef) String() string {
	return fmt.Sprintf("%s %q", r.kind, r.id)
}

// UnresolvedReference describes a delta that refers to an entity missing
// from the model.
type UnresolvedReference struct {
	Delta       delta.Delta
	MissingKind delta.Kind
	MissingId   string
}

// Error implements error.
func (r UnresolvedReference) Error() string {
	return fmt.Sprintf("%s %s delta for %q refers to missing %s %q",
		r.Delta.Kind, r.Delta.Verb, r.Delta.Id(), r.MissingKind, r.MissingId)
}

type waiting struct {
	delta delta.Delta
	// batches counts the batch ends the delta has waited through.
	batches int
}

// pendingBuffer holds deltas waiting for a missing entity, keyed by that
// entity, in arrival order.
type pendingBuffer struct {
	retain  int
	waiting map[entityRef][]*waiting
	// blocked maps an entity with buffered deltas to the entity they
	// wait for.
	blocked map[entityRef]entityRef
}

func newPendingBuffer(retain int) *pendingBuffer {
	return &pendingBuffer{
		retain:  retain,
		waiting: make(map[entityRef][]*waiting),
		blocked: make(map[entityRef]entityRef),
	}
}

func (b *pendingBuffer) add(d delta.Delta, missing entityRef) {
	b.waiting[missing] = append(b.waiting[missing], &waiting{delta: d})
	b.blocked[entityRef{kind: d.Kind, id: d.Id()}] = missing
}

func (b *pendingBuffer) blockedOn(self entityRef) (entityRef, bool) {
	missing, found := b.blocked[self]
	return missing, found
}

// resolve removes and returns, in arrival order, the deltas waiting for
// ref.
func (b *pendingBuffer) resolve(ref entityRef) []delta.Delta {
	ws, found := b.waiting[ref]
	if !found {
		return nil
	}
	delete(b.waiting, ref)
	deltas := make([]delta.Delta, len(ws))
	for i, w := range ws {
		deltas[i] = w.delta
		self := entityRef{kind: w.delta.Kind, id: w.delta.Id()}
		if b.blocked[self] == ref {
			delete(b.blocked, self)
		}
	}
	return deltas
}

// cancel discards every buffered delta for the given entity and returns
// how many there were.
func (b *pendingBuffer) cancel(self entityRef) int {
	missing, found := b.blocked[self]
	if !found {
		return 0
	}
	delete(b.blocked, self)
	var kept []*waiting
	cancelled := 0
	for _, w := range b.waiting[missing] {
		if w.delta.Kind == self.kind && w.delta.Id() == self.id {
			cancelled++
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		delete(b.waiting, missing)
	} else {
		b.waiting[missing] = kept
	}
	return cancelled
}

// age marks the end of a batch. The deltas waiting on an entity expire
// together once the oldest of them has waited for retain batches; they are
// removed and returned in a stable order.
func (b *pendingBuffer) age() []UnresolvedReference {
	var expired []UnresolvedReference
	for _, ref := range b.refs() {
		ws := b.waiting[ref]
		for _, w := range ws {
			w.batches++
		}
		if ws[0].batches < b.retain {
			continue
		}
		for _, d := range b.resolve(ref) {
			expired = append(expired, UnresolvedReference{
				Delta:       d,
				MissingKind: ref.kind,
				MissingId:   ref.id,
			})
		}
	}
	return expired
}

func (b *pendingBuffer) all() []UnresolvedReference {
	var result []UnresolvedReference
	for _, ref := range b.refs() {
		for _, w := range b.waiting[ref] {
			result = append(result, UnresolvedReference{
				Delta:       w.delta,
				MissingKind: ref.kind,
				MissingId:   ref.id,
			})
		}
	}
	return result
}

func (b *pendingBuffer) len() int {
	n := 0
	for _, ws := range b.waiting {
		n += len(ws)
	}
	return n
}

func (b *pendingBuffer) refs() []entityRef {
	refs := make([]entityRef, 0, len(b.waiting))
	for ref := range b.waiting {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b entityRef) int {
		return cmp.Or(cmp.Compare(a.kind, b.kind), cmp.Compare(a.id, b.id))
	})
	return refs
}

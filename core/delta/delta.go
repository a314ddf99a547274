// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package delta defines the incremental change records streamed from the
// controller and consumed by the model applier.
package delta

import (
	"fmt"

	"github.com/juju/errors"
)

// Kind identifies the kind of entity a delta describes.
type Kind string

const (
	KindService  Kind = "service"
	KindUnit     Kind = "unit"
	KindMachine  Kind = "machine"
	KindRelation Kind = "relation"
	KindCharm    Kind = "charm"
)

// AllKinds holds every entity kind known to the model, in the order
// in which notifications for them are dispatched.
var AllKinds = []Kind{
	KindService,
	KindCharm,
	KindMachine,
	KindUnit,
	KindRelation,
}

// Valid returns whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindService, KindUnit, KindMachine, KindRelation, KindCharm:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Verb identifies the operation a delta performs.
type Verb string

const (
	VerbAdd    Verb = "add"
	VerbChange Verb = "change"
	VerbRemove Verb = "remove"
)

// Valid returns whether the verb is known.
func (v Verb) Valid() bool {
	switch v {
	case VerbAdd, VerbChange, VerbRemove:
		return true
	}
	return false
}

// IsUpsert returns true for verbs that create or update an entity.
// Add and change are handled identically.
func (v Verb) IsUpsert() bool {
	return v == VerbAdd || v == VerbChange
}

// Delta holds a single change to one entity.
type Delta struct {
	Kind Kind
	Verb Verb
	Data map[string]interface{}
}

// New returns a delta for the given kind, verb and data.
func New(kind Kind, verb Verb, data map[string]interface{}) Delta {
	return Delta{Kind: kind, Verb: verb, Data: data}
}

// Id returns the id of the entity the delta refers to, or the empty
// string if the data does not hold a string id.
func (d Delta) Id() string {
	id, _ := d.Data["id"].(string)
	return id
}

// String implements fmt.Stringer.
func (d Delta) String() string {
	return fmt.Sprintf("%s %s %q", d.Kind, d.Verb, d.Id())
}

// MalformedError is returned for a record that cannot be applied because
// it is missing required fields or holds values of the wrong type.
type MalformedError struct {
	Kind   Kind
	Verb   Verb
	Id     string
	Reason string
}

// Error implements error.
func (e *MalformedError) Error() string {
	if e.Id == "" {
		return fmt.Sprintf("malformed %s %s delta: %s", e.Kind, e.Verb, e.Reason)
	}
	return fmt.Sprintf("malformed %s %s delta for %q: %s", e.Kind, e.Verb, e.Id, e.Reason)
}

// IsMalformed reports whether err is a *MalformedError.
func IsMalformed(err error) bool {
	var malformed *MalformedError
	return errors.As(err, &malformed)
}

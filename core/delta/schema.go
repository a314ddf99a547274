// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package delta

import (
	"fmt"

	"github.com/juju/names/v5"
	"github.com/juju/schema"
)

// nullableString accepts a string or an explicit null, which is used by
// the controller to clear a reference (for example an unplaced unit).
func nullableString() schema.Checker {
	return schema.OneOf(schema.Const(nil), schema.String())
}

var endpointSchema = schema.FieldMap(
	schema.Fields{
		"serviceId": schema.String(),
		"role":      schema.String(),
		"name":      schema.String(),
	},
	schema.Defaults{
		"role": schema.Omit,
	},
)

var charmRelationSchema = schema.FieldMap(
	schema.Fields{
		"name":      schema.String(),
		"interface": schema.String(),
		"scope":     schema.String(),
		"optional":  schema.Bool(),
		"limit":     schema.ForceInt(),
	},
	schema.Defaults{
		"name":     schema.Omit,
		"scope":    schema.Omit,
		"optional": schema.Omit,
		"limit":    schema.Omit,
	},
)

// upsertSchemas hold the accepted fields for add and change records.
// Every field but the id is optional so that partial records only
// touch the fields they mention.
var upsertSchemas = map[Kind]schema.Checker{
	KindService: schema.FieldMap(
		schema.Fields{
			"id":          schema.String(),
			"charmId":     schema.String(),
			"exposed":     schema.Bool(),
			"subordinate": schema.Bool(),
			"config":      schema.StringMap(schema.Any()),
			"annotations": schema.StringMap(schema.String()),
		},
		schema.Defaults{
			"charmId":     schema.Omit,
			"exposed":     schema.Omit,
			"subordinate": schema.Omit,
			"config":      schema.Omit,
			"annotations": schema.Omit,
		},
	),
	KindUnit: schema.FieldMap(
		schema.Fields{
			"id":             schema.String(),
			"serviceId":      schema.String(),
			"machineId":      nullableString(),
			"agentState":     nullableString(),
			"agentStateInfo": nullableString(),
			"publicAddress":  nullableString(),
			"isSubordinate":  schema.Bool(),
		},
		schema.Defaults{
			"serviceId":      schema.Omit,
			"machineId":      schema.Omit,
			"agentState":     schema.Omit,
			"agentStateInfo": schema.Omit,
			"publicAddress":  schema.Omit,
			"isSubordinate":  schema.Omit,
		},
	),
	KindMachine: schema.FieldMap(
		schema.Fields{
			"id":             schema.String(),
			"publicAddress":  nullableString(),
			"instanceState":  nullableString(),
			"agentState":     nullableString(),
			"agentStateInfo": nullableString(),
			"series":         nullableString(),
		},
		schema.Defaults{
			"publicAddress":  schema.Omit,
			"instanceState":  schema.Omit,
			"agentState":     schema.Omit,
			"agentStateInfo": schema.Omit,
			"series":         schema.Omit,
		},
	),
	KindRelation: schema.FieldMap(
		schema.Fields{
			"id":        schema.String(),
			"interface": schema.String(),
			"scope":     schema.OneOf(schema.Const("global"), schema.Const("container")),
			"endpoints": schema.List(endpointSchema),
		},
		schema.Defaults{
			"interface": schema.Omit,
			"scope":     schema.Omit,
		},
	),
	KindCharm: schema.FieldMap(
		schema.Fields{
			"id":       schema.String(),
			"name":     schema.String(),
			"revision": schema.ForceInt(),
			"requires": schema.StringMap(charmRelationSchema),
			"provides": schema.StringMap(charmRelationSchema),
			"peers":    schema.StringMap(charmRelationSchema),
		},
		schema.Defaults{
			"name":     schema.Omit,
			"revision": schema.Omit,
			"requires": schema.Omit,
			"provides": schema.Omit,
			"peers":    schema.Omit,
		},
	),
}

var removeSchema = schema.FieldMap(
	schema.Fields{"id": schema.String()},
	nil,
)

// Validate checks the delta's data against the schema for its kind and
// verb, returning the coerced data. Fields that are not part of the
// schema are dropped. A *MalformedError is returned for records that
// cannot be applied.
func Validate(d Delta) (map[string]interface{}, error) {
	malformed := func(format string, args ...interface{}) error {
		return &MalformedError{
			Kind:   d.Kind,
			Verb:   d.Verb,
			Id:     d.Id(),
			Reason: fmt.Sprintf(format, args...),
		}
	}
	if !d.Kind.Valid() {
		return nil, malformed("unknown kind")
	}
	if !d.Verb.Valid() {
		return nil, malformed("unknown verb")
	}
	if d.Data == nil {
		return nil, malformed("no data")
	}

	checker := removeSchema
	if d.Verb.IsUpsert() {
		checker = upsertSchemas[d.Kind]
	}
	coerced, err := checker.Coerce(d.Data, nil)
	if err != nil {
		return nil, malformed("%v", err)
	}
	data := coerced.(map[string]interface{})
	id := data["id"].(string)
	if id == "" {
		return nil, malformed("empty id")
	}

	switch d.Kind {
	case KindService:
		if !names.IsValidApplication(id) {
			return nil, malformed("invalid service name")
		}
	case KindUnit:
		if !names.IsValidUnit(id) {
			return nil, malformed("invalid unit name")
		}
		owner, err := names.UnitApplication(id)
		if err != nil {
			return nil, malformed("%v", err)
		}
		if serviceId, ok := data["serviceId"]; ok && serviceId != owner {
			return nil, malformed("serviceId %q does not match unit name", serviceId)
		}
		data["serviceId"] = owner
	case KindMachine:
		if !names.IsValidMachine(id) {
			return nil, malformed("invalid machine id")
		}
	case KindRelation:
		if !d.Verb.IsUpsert() {
			break
		}
		endpoints := data["endpoints"].([]interface{})
		if n := len(endpoints); n < 1 || n > 2 {
			return nil, malformed("expected 1 or 2 endpoints, got %d", n)
		}
	}
	return data, nil
}

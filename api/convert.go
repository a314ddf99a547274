// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"github.com/juju/names/v5"

	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/status"
)

// ToDeltas converts watcher deltas into model records, in order.
// Entities the model does not track are skipped.
func ToDeltas(in []params.Delta) []delta.Delta {
	out := make([]delta.Delta, 0, len(in))
	for _, d := range in {
		if converted, ok := ToDelta(d); ok {
			out = append(out, converted)
		}
	}
	return out
}

// ToDelta converts one watcher delta. The boolean result is false when
// the entity has no counterpart in the model.
func ToDelta(d params.Delta) (delta.Delta, bool) {
	verb := delta.VerbChange
	if d.Removed {
		verb = delta.VerbRemove
	}
	switch e := d.Entity.(type) {
	case *params.ApplicationInfo:
		if d.Removed {
			return delta.New(delta.KindService, verb, removed(e.Name)), true
		}
		data := map[string]interface{}{
			"id":          e.Name,
			"charmId":     e.CharmURL,
			"exposed":     e.Exposed,
			"subordinate": e.Subordinate,
		}
		if e.Config != nil {
			data["config"] = e.Config
		}
		return delta.New(delta.KindService, verb, data), true

	case *params.UnitInfo:
		if d.Removed {
			return delta.New(delta.KindUnit, verb, removed(e.Name)), true
		}
		agentState, agentStateInfo := unitState(e)
		return delta.New(delta.KindUnit, verb, map[string]interface{}{
			"id":             e.Name,
			"serviceId":      e.Application,
			"machineId":      nullable(e.MachineId),
			"publicAddress":  nullable(e.PublicAddress),
			"isSubordinate":  e.Subordinate,
			"agentState":     nullable(agentState),
			"agentStateInfo": nullable(agentStateInfo),
		}), true

	case *params.MachineInfo:
		if d.Removed {
			return delta.New(delta.KindMachine, verb, removed(e.Id)), true
		}
		return delta.New(delta.KindMachine, verb, map[string]interface{}{
			"id":             e.Id,
			"series":         nullable(e.Series),
			"publicAddress":  nullable(publicAddress(e.Addresses)),
			"instanceState":  nullable(e.InstanceStatus.Current),
			"agentState":     nullable(string(status.FromMachineStatus(e.AgentStatus.Current))),
			"agentStateInfo": nullable(e.AgentStatus.Message),
		}), true

	case *params.RelationInfo:
		if d.Removed {
			return delta.New(delta.KindRelation, verb, removed(e.Key)), true
		}
		return delta.New(delta.KindRelation, verb, relationData(e)), true

	case *params.AnnotationInfo:
		// Only service annotations are modelled. Their removal goes
		// with the application's own removal.
		if d.Removed {
			return delta.Delta{}, false
		}
		tag, err := names.ParseTag(e.Tag)
		if err != nil || tag.Kind() != names.ApplicationTagKind {
			return delta.Delta{}, false
		}
		annotations := e.Annotations
		if annotations == nil {
			annotations = map[string]string{}
		}
		return delta.New(delta.KindService, delta.VerbChange, map[string]interface{}{
			"id":          tag.Id(),
			"annotations": toInterfaceMap(annotations),
		}), true
	}
	return delta.Delta{}, false
}

func removed(id string) map[string]interface{} {
	return map[string]interface{}{"id": id}
}

// nullable maps the empty string to an explicit null, which clears the
// field in the model.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func unitState(e *params.UnitInfo) (string, string) {
	state := status.FromUnitStatus(e.AgentStatus.Current, e.WorkloadStatus.Current, e.WorkloadStatus.Message)
	info := e.WorkloadStatus.Message
	if e.AgentStatus.Current == "error" || e.AgentStatus.Current == "lost" {
		info = e.AgentStatus.Message
	}
	return string(state), info
}

func publicAddress(addrs []params.Address) string {
	for _, addr := range addrs {
		if addr.Scope == "public" {
			return addr.Value
		}
	}
	return ""
}

func relationData(e *params.RelationInfo) map[string]interface{} {
	endpoints := make([]interface{}, len(e.Endpoints))
	data := map[string]interface{}{
		"id":        e.Key,
		"endpoints": endpoints,
	}
	for i, ep := range e.Endpoints {
		endpoints[i] = map[string]interface{}{
			"serviceId": ep.ApplicationName,
			"name":      ep.Relation.Name,
			"role":      ep.Relation.Role,
		}
		if i == 0 {
			data["interface"] = ep.Relation.Interface
			if ep.Relation.Scope != "" {
				data["scope"] = ep.Relation.Scope
			}
		}
	}
	return data
}

func toInterfaceMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CharmDelta converts charm metadata into a charm record for the model.
func CharmDelta(info params.CharmInfo) delta.Delta {
	data := map[string]interface{}{
		"id":       info.URL,
		"revision": info.Revision,
	}
	if meta := info.Meta; meta != nil {
		data["name"] = meta.Name
		data["requires"] = charmRelations(meta.Requires)
		data["provides"] = charmRelations(meta.Provides)
		data["peers"] = charmRelations(meta.Peers)
	}
	return delta.New(delta.KindCharm, delta.VerbChange, data)
}

func charmRelations(in map[string]params.CharmRelation) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for name, rel := range in {
		out[name] = map[string]interface{}{
			"name":      name,
			"interface": rel.Interface,
			"scope":     rel.Scope,
			"optional":  rel.Optional,
			"limit":     rel.Limit,
		}
	}
	return out
}

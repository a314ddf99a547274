// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package params

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

// EntityInfo is implemented by all entity Info types.
type EntityInfo interface {
	// EntityId returns an identifier that will uniquely
	// identify the entity within its kind.
	EntityId() EntityId
}

// EntityId uniquely identifies an entity reported by the watcher.
type EntityId struct {
	Kind      string `json:"kind"`
	ModelUUID string `json:"model-uuid"`
	Id        string `json:"id"`
}

// Delta holds details of a change to the model.
type Delta struct {
	// If Removed is true, the entity has been removed;
	// otherwise it has been created or changed.
	Removed bool `json:"removed"`
	// Entity holds data about the entity that has changed. It is nil
	// for kinds of entity the GUI does not track.
	Entity EntityInfo `json:"entity"`
	// Kind holds the entity kind as sent by the controller.
	Kind string `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (d *Delta) MarshalJSON() ([]byte, error) {
	if d.Entity == nil {
		return nil, errors.Errorf("cannot marshal %s delta with no entity", d.Kind)
	}
	b, err := json.Marshal(d.Entity)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	c := "change"
	if d.Removed {
		c = "remove"
	}
	fmt.Fprintf(&buf, "%q,%q,", d.Entity.EntityId().Kind, c)
	buf.Write(b)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Delta) UnmarshalJSON(data []byte) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return err
	}
	if len(elements) != 3 {
		return errors.Errorf(
			"expected 3 elements in top-level of JSON but got %d",
			len(elements))
	}
	var entityKind, operation string
	if err := json.Unmarshal(elements[0], &entityKind); err != nil {
		return err
	}
	if err := json.Unmarshal(elements[1], &operation); err != nil {
		return err
	}
	if operation == "remove" {
		d.Removed = true
	} else if operation != "change" {
		return errors.Errorf("unexpected operation %q", operation)
	}
	d.Kind = entityKind
	switch entityKind {
	case "machine":
		d.Entity = new(MachineInfo)
	case "application":
		d.Entity = new(ApplicationInfo)
	case "unit":
		d.Entity = new(UnitInfo)
	case "relation":
		d.Entity = new(RelationInfo)
	case "annotation":
		d.Entity = new(AnnotationInfo)
	default:
		// Models, actions, blocks, offers and the like.
		return nil
	}
	return json.Unmarshal(elements[2], d.Entity)
}

// Address describes a network address.
type Address struct {
	Value string `json:"value"`
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// StatusInfo holds the unit and machine status information.
type StatusInfo struct {
	Current string                 `json:"current"`
	Message string                 `json:"message"`
	Version string                 `json:"version"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// MachineInfo holds the information about a machine.
type MachineInfo struct {
	ModelUUID      string     `json:"model-uuid"`
	Id             string     `json:"id"`
	InstanceId     string     `json:"instance-id"`
	AgentStatus    StatusInfo `json:"agent-status"`
	InstanceStatus StatusInfo `json:"instance-status"`
	Life           string     `json:"life"`
	Series         string     `json:"series"`
	Addresses      []Address  `json:"addresses"`
}

// EntityId returns a unique identifier for a machine across models.
func (i *MachineInfo) EntityId() EntityId {
	return EntityId{
		Kind:      "machine",
		ModelUUID: i.ModelUUID,
		Id:        i.Id,
	}
}

// ApplicationInfo holds the information about an application.
type ApplicationInfo struct {
	ModelUUID   string                 `json:"model-uuid"`
	Name        string                 `json:"name"`
	Exposed     bool                   `json:"exposed"`
	CharmURL    string                 `json:"charm-url"`
	Life        string                 `json:"life"`
	MinUnits    int                    `json:"min-units"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Subordinate bool                   `json:"subordinate"`
	Status      StatusInfo             `json:"status"`
}

// EntityId returns a unique identifier for an application across models.
func (i *ApplicationInfo) EntityId() EntityId {
	return EntityId{
		Kind:      "application",
		ModelUUID: i.ModelUUID,
		Id:        i.Name,
	}
}

// UnitInfo holds the information about a unit.
type UnitInfo struct {
	ModelUUID      string `json:"model-uuid"`
	Name           string `json:"name"`
	Application    string `json:"application"`
	Series         string `json:"series"`
	CharmURL       string `json:"charm-url"`
	PublicAddress  string `json:"public-address"`
	PrivateAddress string `json:"private-address"`
	MachineId      string `json:"machine-id"`
	Subordinate    bool   `json:"subordinate"`
	// Workload and agent state are modelled separately.
	WorkloadStatus StatusInfo `json:"workload-status"`
	AgentStatus    StatusInfo `json:"agent-status"`
}

// EntityId returns a unique identifier for a unit across models.
func (i *UnitInfo) EntityId() EntityId {
	return EntityId{
		Kind:      "unit",
		ModelUUID: i.ModelUUID,
		Id:        i.Name,
	}
}

// RelationInfo holds the information about a relation.
type RelationInfo struct {
	ModelUUID string     `json:"model-uuid"`
	Key       string     `json:"key"`
	Id        int        `json:"id"`
	Endpoints []Endpoint `json:"endpoints"`
}

// EntityId returns a unique identifier for a relation across models.
func (i *RelationInfo) EntityId() EntityId {
	return EntityId{
		Kind:      "relation",
		ModelUUID: i.ModelUUID,
		Id:        i.Key,
	}
}

// CharmRelation mirrors a relation declared in charm metadata.
type CharmRelation struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Interface string `json:"interface"`
	Optional  bool   `json:"optional"`
	Limit     int    `json:"limit"`
	Scope     string `json:"scope"`
}

// Endpoint holds an application-relation pair.
type Endpoint struct {
	ApplicationName string        `json:"application-name"`
	Relation        CharmRelation `json:"relation"`
}

// AnnotationInfo holds the information about an annotation.
type AnnotationInfo struct {
	ModelUUID   string            `json:"model-uuid"`
	Tag         string            `json:"tag"`
	Annotations map[string]string `json:"annotations"`
}

// EntityId returns a unique identifier for an annotation across models.
func (i *AnnotationInfo) EntityId() EntityId {
	return EntityId{
		Kind:      "annotation",
		ModelUUID: i.ModelUUID,
		Id:        i.Tag,
	}
}

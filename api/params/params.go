// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package params holds the wire types exchanged with the controller's
// API facades.
package params

import (
	"github.com/juju/errors"
)

// Error is the type of error returned inside facade results.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorCode returns the error code.
func (e *Error) ErrorCode() string {
	return e.Code
}

// ErrorResult holds the error status of a single operation.
type ErrorResult struct {
	Error *Error `json:"error,omitempty"`
}

// ErrorResults holds the results of calling a bulk operation which
// returns no data, only an error result.
type ErrorResults struct {
	Results []ErrorResult `json:"results"`
}

// OneError returns the error from the result of a bulk operation on a
// single value.
func (result ErrorResults) OneError() error {
	if n := len(result.Results); n != 1 {
		return errors.Errorf("expected 1 result, got %d", n)
	}
	if err := result.Results[0].Error; err != nil {
		return err
	}
	return nil
}

// LoginRequest holds the credentials of the logging in user.
type LoginRequest struct {
	AuthTag       string `json:"auth-tag"`
	Credentials   string `json:"credentials"`
	Nonce         string `json:"nonce"`
	ClientVersion string `json:"client-version,omitempty"`
}

// FacadeVersions describes the available facades and their versions.
type FacadeVersions struct {
	Name     string `json:"name"`
	Versions []int  `json:"versions"`
}

// LoginResult holds the result of an Admin Login call.
type LoginResult struct {
	ControllerTag string           `json:"controller-tag,omitempty"`
	ModelTag      string           `json:"model-tag,omitempty"`
	Facades       []FacadeVersions `json:"facades,omitempty"`
	ServerVersion string           `json:"server-version,omitempty"`
}

// AllWatcherId holds the id of an AllWatcher.
type AllWatcherId struct {
	AllWatcherId string `json:"watcher-id"`
}

// AllWatcherNextResults holds deltas returned from calling AllWatcher.Next.
type AllWatcherNextResults struct {
	Deltas []Delta `json:"deltas"`
}

// AddMachineParams encapsulates the parameters used to create a new
// machine, or a container on an existing machine.
type AddMachineParams struct {
	Series        string   `json:"series,omitempty"`
	Jobs          []string `json:"jobs"`
	ParentId      string   `json:"parent-id,omitempty"`
	ContainerType string   `json:"container-type,omitempty"`
}

// JobHostUnits is the job of machines that host units.
const JobHostUnits = "JobHostUnits"

// AddMachines holds the parameters for making the AddMachines call.
type AddMachines struct {
	MachineParams []AddMachineParams `json:"params"`
}

// AddMachinesResult holds the name of a machine added by the
// MachineManager.AddMachines call, or the error that prevented it.
type AddMachinesResult struct {
	Machine string `json:"machine"`
	Error   *Error `json:"error,omitempty"`
}

// AddMachinesResults holds the results of an AddMachines call.
type AddMachinesResults struct {
	Machines []AddMachinesResult `json:"machines"`
}

// AddApplicationUnits holds parameters for the AddUnits call.
type AddApplicationUnits struct {
	ApplicationName string `json:"application"`
	NumUnits        int    `json:"num-units"`
}

// AddApplicationUnitsResults holds the names of the units added by the
// AddUnits call.
type AddApplicationUnitsResults struct {
	Units []string `json:"units"`
}

// ApplicationDeploy holds the parameters for deploying one application.
type ApplicationDeploy struct {
	ApplicationName string            `json:"application"`
	CharmURL        string            `json:"charm-url"`
	NumUnits        int               `json:"num-units"`
	Config          map[string]string `json:"config,omitempty"`
}

// ApplicationsDeploy holds the parameters for making the Deploy call.
type ApplicationsDeploy struct {
	Applications []ApplicationDeploy `json:"applications"`
}

// PlaceUnitParams holds the unit to assign and the machine to assign it
// to, both as tags.
type PlaceUnitParams struct {
	UnitTag    string `json:"unit-tag"`
	MachineTag string `json:"machine-tag"`
}

// PlaceUnitsParams holds the parameters of a PlaceUnits call.
type PlaceUnitsParams struct {
	Placements []PlaceUnitParams `json:"placements"`
}

// AddRelation holds the parameters for making the AddRelation call.
type AddRelation struct {
	Endpoints []string `json:"endpoints"`
}

// AddRelationResults holds the results of an AddRelation call.
type AddRelationResults struct {
	Endpoints map[string]CharmRelation `json:"endpoints"`
}

// CharmURL identifies a single charm URL.
type CharmURL struct {
	URL string `json:"url"`
}

// CharmMeta mirrors the relation part of a charm's metadata.
type CharmMeta struct {
	Name        string                   `json:"name"`
	Subordinate bool                     `json:"subordinate"`
	Provides    map[string]CharmRelation `json:"provides,omitempty"`
	Requires    map[string]CharmRelation `json:"requires,omitempty"`
	Peers       map[string]CharmRelation `json:"peers,omitempty"`
}

// CharmInfo holds the charm information returned by Charms.CharmInfo.
type CharmInfo struct {
	Revision int        `json:"revision"`
	URL      string     `json:"url"`
	Meta     *CharmMeta `json:"meta,omitempty"`
}

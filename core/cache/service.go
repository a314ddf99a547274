// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

// Service represents a deployed application in the model.
type Service struct {
	Id          string                 `json:"id"`
	CharmId     string                 `json:"charmId,omitempty"`
	Exposed     bool                   `json:"exposed,omitempty"`
	Subordinate bool                   `json:"subordinate,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Annotations map[string]string      `json:"annotations,omitempty"`

	// Pending is true until the controller confirms the deployment.
	Pending bool `json:"pending,omitempty"`
}

func fixupService(id string, s *Service) {
	s.Id = id
}

package ui

import (
	"featurelens/internal/domain"
	"featurelens/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// assembliesMsg contains the result of listing the session's assemblies
type assembliesMsg struct {
	assemblies []domain.Assembly
	err        error
}

// settledMsg signals that a blocking machine action returned and a fresh
// snapshot is available
type settledMsg struct {
	action string
}

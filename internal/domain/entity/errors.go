package entity

import (
	"context"
	"errors"
	"fmt"
)

// Phase names a step of the extraction protocol.
type Phase string

const (
	PhaseInit                 Phase = "Init"
	PhaseAuthCheck            Phase = "AuthCheck"
	PhaseExtractIdentity      Phase = "ExtractIdentity"
	PhaseSelectFullYearView   Phase = "SelectFullYearView"
	PhaseExtractBudget        Phase = "ExtractBudget"
	PhaseSelectYearToDateView Phase = "SelectYearToDateView"
	PhaseExtractSpend         Phase = "ExtractSpend"
	PhaseCompute              Phase = "Compute"
)

// ErrorKind classifies an extraction failure.
type ErrorKind string

const (
	KindAuth     ErrorKind = "auth"
	KindProtocol ErrorKind = "protocol"
	KindNetwork  ErrorKind = "network"
	KindParse    ErrorKind = "parse"
)

// ExtractionError is the single failure value returned for a fleet.
type ExtractionError struct {
	FleetID string    `json:"fleetId"`
	Phase   Phase     `json:"phase"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fleet %s: %s error in %s: %s", e.FleetID, e.Kind, e.Phase, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError tags err with the fleet and phase. The kind is inferred
// from err unless it already is an ExtractionError.
func NewExtractionError(fleetID string, phase Phase, kind ErrorKind, err error) *ExtractionError {
	var existing *ExtractionError
	if errors.As(err, &existing) {
		return existing
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindNetwork
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ExtractionError{FleetID: fleetID, Phase: phase, Kind: kind, Message: msg, Err: err}
}

// ProtocolError builds a protocol failure from a message.
func ProtocolError(fleetID string, phase Phase, format string, a ...interface{}) *ExtractionError {
	return &ExtractionError{
		FleetID: fleetID,
		Phase:   phase,
		Kind:    KindProtocol,
		Message: fmt.Sprintf(format, a...),
	}
}

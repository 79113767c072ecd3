// Package domain holds the negotiation pipeline's pure domain types:
// the status state machine and the timeline event model.
package domain

// Status is a negotiation pipeline status. Persisted values are the
// enumerated strings below and nothing else.
type Status string

const (
	StatusContato         Status = "CONTATO"
	StatusVisitaAgendada  Status = "VISITA_AGENDADA"
	StatusVisitaRealizada Status = "VISITA_REALIZADA"
	StatusProposta        Status = "PROPOSTA"
	StatusAnaliseCredito  Status = "ANALISE_CREDITO"
	StatusContrato        Status = "CONTRATO"
	StatusFechado         Status = "FECHADO"
	StatusPerdido         Status = "PERDIDO"
	StatusCancelado       Status = "CANCELADO"
)

// allowedTransitions is the full pipeline graph. Terminal statuses have no
// outgoing edges and therefore no entry here.
var allowedTransitions = map[Status][]Status{
	StatusContato:         {StatusVisitaAgendada, StatusPerdido, StatusCancelado},
	StatusVisitaAgendada:  {StatusVisitaRealizada, StatusContato, StatusPerdido, StatusCancelado},
	StatusVisitaRealizada: {StatusProposta, StatusContato, StatusPerdido, StatusCancelado},
	StatusProposta:        {StatusAnaliseCredito, StatusContrato, StatusVisitaRealizada, StatusPerdido, StatusCancelado},
	StatusAnaliseCredito:  {StatusContrato, StatusProposta, StatusPerdido, StatusCancelado},
	StatusContrato:        {StatusFechado, StatusPerdido, StatusCancelado},
}

var knownStatuses = map[Status]struct{}{
	StatusContato:         {},
	StatusVisitaAgendada:  {},
	StatusVisitaRealizada: {},
	StatusProposta:        {},
	StatusAnaliseCredito:  {},
	StatusContrato:        {},
	StatusFechado:         {},
	StatusPerdido:         {},
	StatusCancelado:       {},
}

// IsKnownStatus reports whether s is one of the nine pipeline statuses.
func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s Status) bool {
	switch s {
	case StatusFechado, StatusPerdido, StatusCancelado:
		return true
	}
	return false
}

// CanTransition reports whether the pipeline allows moving from one status
// to another. Self-transitions are not in the table and return false.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the transition targets for the given status.
// Terminal statuses return an empty slice.
func AllowedTargets(from Status) []Status {
	targets := allowedTransitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// DeletableStatuses are the statuses a negotiation may be destroyed in.
// Anything mid-pipeline must be moved to a terminal status first.
var DeletableStatuses = []Status{StatusContato, StatusPerdido, StatusCancelado}

// IsDeletable reports whether a negotiation in status s may be destroyed.
func IsDeletable(s Status) bool {
	for _, d := range DeletableStatuses {
		if d == s {
			return true
		}
	}
	return false
}

// AllStatuses lists every pipeline status in pipeline order.
// Used by reporting to emit zero counts for empty buckets.
func AllStatuses() []Status {
	return []Status{
		StatusContato,
		StatusVisitaAgendada,
		StatusVisitaRealizada,
		StatusProposta,
		StatusAnaliseCredito,
		StatusContrato,
		StatusFechado,
		StatusPerdido,
		StatusCancelado,
	}
}

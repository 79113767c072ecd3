package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind discriminates timeline entries. Each kind carries its own
// payload struct; there is no free-form event.
type EventKind string

const (
	EventCriacao             EventKind = "CRIACAO"
	EventMudancaStatus       EventKind = "MUDANCA_STATUS"
	EventComissaoAdicionada  EventKind = "COMISSAO_ADICIONADA"
	EventDocumentoAdicionado EventKind = "DOCUMENTO_ADICIONADO"
)

// CriacaoPayload records the opening of a negotiation.
type CriacaoPayload struct {
	BrokerID      uuid.UUID        `json:"broker_id"`
	ProposalValue *decimal.Decimal `json:"proposal_value,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// MudancaStatusPayload records one pipeline transition.
type MudancaStatusPayload struct {
	PreviousStatus Status           `json:"previous_status"`
	NewStatus      Status           `json:"new_status"`
	Description    string           `json:"description"`
	LossReason     string           `json:"loss_reason,omitempty"`
	ClosingValue   *decimal.Decimal `json:"closing_value,omitempty"`
}

// ComissaoPayload records a commission ledger append.
type ComissaoPayload struct {
	BrokerID uuid.UUID       `json:"broker_id"`
	Percent  decimal.Decimal `json:"percent"`
	Value    decimal.Decimal `json:"value"`
	Tipo     CommissionTipo  `json:"tipo"`
}

// DocumentoPayload records a document attachment.
type DocumentoPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	FileName   string    `json:"file_name"`
}

// EncodeEventPayload serializes a kind-specific payload after checking that
// the payload type matches the kind. A mismatch is a programming error and
// is reported, never silently stored.
func EncodeEventPayload(kind EventKind, payload any) (json.RawMessage, error) {
	ok := false
	switch kind {
	case EventCriacao:
		_, ok = payload.(CriacaoPayload)
	case EventMudancaStatus:
		_, ok = payload.(MudancaStatusPayload)
	case EventComissaoAdicionada:
		_, ok = payload.(ComissaoPayload)
	case EventDocumentoAdicionado:
		_, ok = payload.(DocumentoPayload)
	default:
		return nil, fmt.Errorf("unknown timeline event kind %q", kind)
	}
	if !ok {
		return nil, fmt.Errorf("payload type %T does not match event kind %q", payload, kind)
	}
	return json.Marshal(payload)
}

// DecodeEventPayload deserializes a stored payload into the struct for its kind.
func DecodeEventPayload(kind EventKind, raw json.RawMessage) (any, error) {
	switch kind {
	case EventCriacao:
		var p CriacaoPayload
		return p, json.Unmarshal(raw, &p)
	case EventMudancaStatus:
		var p MudancaStatusPayload
		return p, json.Unmarshal(raw, &p)
	case EventComissaoAdicionada:
		var p ComissaoPayload
		return p, json.Unmarshal(raw, &p)
	case EventDocumentoAdicionado:
		var p DocumentoPayload
		return p, json.Unmarshal(raw, &p)
	}
	return nil, fmt.Errorf("unknown timeline event kind %q", kind)
}

// CommissionTipo classifies a commission record.
type CommissionTipo string

const (
	ComissaoCaptacao CommissionTipo = "CAPTACAO"
	ComissaoVenda    CommissionTipo = "VENDA"
	ComissaoSplit    CommissionTipo = "SPLIT"
)

// IsKnownCommissionTipo reports whether t is a valid commission type.
func IsKnownCommissionTipo(t CommissionTipo) bool {
	switch t {
	case ComissaoCaptacao, ComissaoVenda, ComissaoSplit:
		return true
	}
	return false
}

package domain

import "fmt"

type AssignmentStatus string

const (
	AssignmentActiva     AssignmentStatus = "activa"
	AssignmentCompletada AssignmentStatus = "completada"
	AssignmentAbandonada AssignmentStatus = "abandonada"
)

var AssignmentStatuses = []AssignmentStatus{AssignmentActiva, AssignmentCompletada, AssignmentAbandonada}

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	for _, st := range AssignmentStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown assignment status %q", s)
}

func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompletada || s == AssignmentAbandonada
}

// AbandonOutcome selects the procedure status left behind by an abandoned
// assignment.
type AbandonOutcome string

const (
	OutcomeCancelado      AbandonOutcome = "cancelado"
	OutcomeAusente        AbandonOutcome = "ausente"
	// OutcomeContraindicado closes the claim when the treatment turns out
	// to be contraindicated mid-way.
	OutcomeContraindicado AbandonOutcome = "contraindicado"
)

func ParseAbandonOutcome(s string) (AbandonOutcome, error) {
	switch AbandonOutcome(s) {
	case "":
		return OutcomeCancelado, nil
	case OutcomeCancelado, OutcomeAusente, OutcomeContraindicado:
		return AbandonOutcome(s), nil
	}
	return "", fmt.Errorf("unknown abandon outcome %q", s)
}

func (o AbandonOutcome) ProcedureStatus() ProcedureStatus {
	switch o {
	case OutcomeAusente:
		return ProcedureAusente
	case OutcomeContraindicado:
		return ProcedureContraindicado
	}
	return ProcedureCancelado
}

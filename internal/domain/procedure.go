package domain

import "fmt"

type ProcedureStatus string

const (
	ProcedureDisponible     ProcedureStatus = "disponible"
	ProcedureProceso        ProcedureStatus = "proceso"
	ProcedureFinalizado     ProcedureStatus = "finalizado"
	ProcedureContraindicado ProcedureStatus = "contraindicado"
	ProcedureAusente        ProcedureStatus = "ausente"
	ProcedureCancelado      ProcedureStatus = "cancelado"
)

var ProcedureStatuses = []ProcedureStatus{
	ProcedureDisponible,
	ProcedureProceso,
	ProcedureFinalizado,
	ProcedureContraindicado,
	ProcedureAusente,
	ProcedureCancelado,
}

func ParseProcedureStatus(s string) (ProcedureStatus, error) {
	for _, st := range ProcedureStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown procedure status %q", s)
}

func (s ProcedureStatus) Valid() bool {
	_, err := ParseProcedureStatus(string(s))
	return err == nil
}

// Terminal reports whether no assignment can move the procedure any further.
// A finalised repair is not terminal because it may be claimed again.
func (s ProcedureStatus) Terminal(isRepair bool) bool {
	switch s {
	case ProcedureContraindicado, ProcedureAusente, ProcedureCancelado:
		return true
	case ProcedureFinalizado:
		return !isRepair
	}
	return false
}

// Claimable reports whether a student may open an assignment on a procedure.
func Claimable(s ProcedureStatus, isRepair bool) bool {
	return s == ProcedureDisponible || (s == ProcedureFinalizado && isRepair)
}

var procedureTransitions = map[ProcedureStatus][]ProcedureStatus{
	ProcedureDisponible: {ProcedureProceso, ProcedureContraindicado},
	ProcedureProceso:    {ProcedureFinalizado, ProcedureAusente, ProcedureCancelado, ProcedureContraindicado},
}

// CanTransitionProcedure validates a status change. The repair flag lets a
// finalised procedure go back to proceso.
func CanTransitionProcedure(from, to ProcedureStatus, isRepair bool) bool {
	if from == ProcedureFinalizado && to == ProcedureProceso {
		return isRepair
	}
	for _, next := range procedureTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

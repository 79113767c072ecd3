package domain

import "testing"

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, s := range []Status{StatusFechado, StatusPerdido, StatusCancelado} {
		if !IsTerminal(s) {
			t.Fatalf("expected %s to be terminal", s)
		}
		if targets := AllowedTargets(s); len(targets) != 0 {
			t.Fatalf("terminal status %s has outgoing edges %v", s, targets)
		}
	}
}

func TestEveryTransitionTargetIsKnown(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range AllowedTargets(from) {
			if !IsKnownStatus(to) {
				t.Fatalf("transition %s -> %s targets unknown status", from, to)
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusContato, StatusVisitaAgendada, true},
		{StatusContato, StatusProposta, false},
		{StatusVisitaAgendada, StatusVisitaRealizada, true},
		{StatusVisitaAgendada, StatusProposta, false},
		{StatusVisitaRealizada, StatusProposta, true},
		{StatusProposta, StatusAnaliseCredito, true},
		{StatusProposta, StatusContrato, true},
		{StatusProposta, StatusVisitaRealizada, true},
		{StatusProposta, StatusFechado, false},
		{StatusAnaliseCredito, StatusContrato, true},
		{StatusAnaliseCredito, StatusProposta, true},
		{StatusContrato, StatusFechado, true},
		{StatusContrato, StatusContato, false},
		{StatusFechado, StatusContato, false},
		{StatusPerdido, StatusContato, false},
		{StatusCancelado, StatusContato, false},
		{StatusContato, StatusContato, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEveryNonTerminalStatusCanReachLossAndCancellation(t *testing.T) {
	for _, from := range AllStatuses() {
		if IsTerminal(from) {
			continue
		}
		if !CanTransition(from, StatusPerdido) {
			t.Errorf("%s cannot reach PERDIDO", from)
		}
		if !CanTransition(from, StatusCancelado) {
			t.Errorf("%s cannot reach CANCELADO", from)
		}
	}
}

func TestIsDeletable(t *testing.T) {
	deletable := map[Status]bool{
		StatusContato:   true,
		StatusPerdido:   true,
		StatusCancelado: true,
	}
	for _, s := range AllStatuses() {
		if got := IsDeletable(s); got != deletable[s] {
			t.Errorf("IsDeletable(%s) = %v, want %v", s, got, deletable[s])
		}
	}
}

package domain

import "testing"

func TestUnavailable(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusDisponivel, false},
		{StatusVendido, true},
		{StatusAlugado, true},
	}

	for _, tc := range cases {
		if got := tc.status.Unavailable(); got != tc.want {
			t.Errorf("Unavailable(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestClosedStatusFollowsCategory(t *testing.T) {
	if got := CategoryVenda.ClosedStatus(); got != StatusVendido {
		t.Errorf("ClosedStatus(VENDA) = %s, want VENDIDO", got)
	}
	if got := CategoryLocacao.ClosedStatus(); got != StatusAlugado {
		t.Errorf("ClosedStatus(LOCACAO) = %s, want ALUGADO", got)
	}
}

package scoring

import "testing"

func TestComputeFullyQualifiedReferralLead(t *testing.T) {
	result := Compute(Attributes{
		HasEmail:      true,
		HasCPF:        true,
		SourceChannel: SourceReferral,
		Interest: Interest{
			PropertyTypes: []string{"APARTAMENTO"},
		},
	})

	if result.Score != 57 {
		t.Fatalf("expected score 57, got %d", result.Score)
	}
	if result.Temperature != TemperatureWarm {
		t.Fatalf("expected WARM, got %s", result.Temperature)
	}
}

func TestComputeCapsAtHundred(t *testing.T) {
	result := Compute(Attributes{
		HasEmail: true,
		HasCPF:   true,
		Interest: Interest{
			PropertyTypes: []string{"CASA", "APARTAMENTO"},
			PriceRangeMin: true,
			PriceRangeMax: true,
			Locations:     []string{"Centro"},
		},
		SourceChannel:     SourceReferral,
		HasAssignedBroker: true,
	})

	if result.Score != 80 {
		t.Fatalf("expected score 80 for all attributes, got %d", result.Score)
	}
	if result.Temperature != TemperatureHot {
		t.Fatalf("expected HOT, got %s", result.Temperature)
	}
	if result.Score > 100 {
		t.Fatalf("score exceeds cap: %d", result.Score)
	}
}

func TestComputeEmptyAttributes(t *testing.T) {
	result := Compute(Attributes{})
	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	if result.Temperature != TemperatureCold {
		t.Fatalf("expected COLD, got %s", result.Temperature)
	}
}

func TestComputeUnknownChannelContributesNothing(t *testing.T) {
	with := Compute(Attributes{SourceChannel: SourceChannel("BILLBOARD"), HasEmail: true})
	without := Compute(Attributes{HasEmail: true})
	if with.Score != without.Score {
		t.Fatalf("unknown channel changed score: %d != %d", with.Score, without.Score)
	}
}

func TestChannelWeights(t *testing.T) {
	cases := []struct {
		channel SourceChannel
		want    int
	}{
		{SourceReferral, 25},
		{SourceWebsite, 20},
		{SourceWhatsApp, 15},
		{SourcePhone, 10},
		{SourcePortal, 8},
		{SourceSocial, 5},
	}

	for _, tc := range cases {
		result := Compute(Attributes{SourceChannel: tc.channel})
		if result.Score != tc.want {
			t.Errorf("channel %s: expected %d, got %d", tc.channel, tc.want, result.Score)
		}
	}
}

func TestTemperatureBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Temperature
	}{
		{0, TemperatureCold},
		{39, TemperatureCold},
		{40, TemperatureWarm},
		{69, TemperatureWarm},
		{70, TemperatureHot},
		{100, TemperatureHot},
	}

	for _, tc := range cases {
		if got := TemperatureFor(tc.score); got != tc.want {
			t.Errorf("TemperatureFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

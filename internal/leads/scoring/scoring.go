// Package scoring converts raw lead attributes into a priority score and
// temperature bucket. The computation is a pure function over the attributes
// known at the moment it is invoked; it is never re-run implicitly when a
// lead changes later.
package scoring

// Temperature is the coarse priority bucket derived from the score.
type Temperature string

const (
	TemperatureHot  Temperature = "HOT"
	TemperatureWarm Temperature = "WARM"
	TemperatureCold Temperature = "COLD"
)

// SourceChannel identifies where a lead was captured.
type SourceChannel string

const (
	SourceReferral SourceChannel = "REFERRAL"
	SourceWebsite  SourceChannel = "WEBSITE"
	SourceWhatsApp SourceChannel = "WHATSAPP"
	SourcePhone    SourceChannel = "PHONE"
	SourcePortal   SourceChannel = "PORTAL"
	SourceSocial   SourceChannel = "SOCIAL"
)

// Interest captures what the lead is looking for.
type Interest struct {
	PropertyTypes []string
	PriceRangeMin bool
	PriceRangeMax bool
	Locations     []string
}

// Attributes are the scoring inputs available at lead creation.
type Attributes struct {
	HasEmail          bool
	HasCPF            bool
	Interest          Interest
	SourceChannel     SourceChannel
	HasAssignedBroker bool
}

// Result holds the computed score and its temperature bucket.
type Result struct {
	Score       int
	Temperature Temperature
}

const maxScore = 100

// Channel weights reflect observed conversion quality: referrals convert far
// better than social media captures; unknown channels contribute nothing.
var channelWeights = map[SourceChannel]int{
	SourceReferral: 25,
	SourceWebsite:  20,
	SourceWhatsApp: 15,
	SourcePhone:    10,
	SourcePortal:   8,
	SourceSocial:   5,
}

// Compute derives the lead score and temperature from the given attributes.
// The score is additive and capped at 100.
func Compute(attrs Attributes) Result {
	score := 0

	if attrs.HasEmail {
		score += 10
	}
	if attrs.HasCPF {
		score += 15
	}
	if len(attrs.Interest.PropertyTypes) > 0 {
		score += 7
	}
	if attrs.Interest.PriceRangeMin || attrs.Interest.PriceRangeMax {
		score += 7
	}
	if len(attrs.Interest.Locations) > 0 {
		score += 6
	}
	score += channelWeights[attrs.SourceChannel]
	if attrs.HasAssignedBroker {
		score += 10
	}

	if score > maxScore {
		score = maxScore
	}

	return Result{Score: score, Temperature: TemperatureFor(score)}
}

// TemperatureFor maps a score to its bucket.
func TemperatureFor(score int) Temperature {
	switch {
	case score >= 70:
		return TemperatureHot
	case score >= 40:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

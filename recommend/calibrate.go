package main

import (
	"math"
	"math/rand/v2"
	"strings"
)

// Calibrator pulls model-proposed prices back into the budget band and
// tags search keywords for the budget tier. The random source is
// injected so the clamp offset can be pinned in tests.
type Calibrator struct {
	rng *rand.Rand
}

func NewCalibrator(rng *rand.Rand) *Calibrator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Calibrator{rng: rng}
}

// Calibrate returns a new slice; the input is never mutated. For each
// item: a price below the band minimum moves to min + rand*5, above the
// maximum to max - rand*5, then the platform factor applies and the
// result rounds to whole yuan. Budget tiers 1-2 get a discount keyword
// appended, tiers 4-5 a premium one, unless an equivalent is already
// there.
func (c *Calibrator) Calibrate(recs []Recommendation, budgetLevel int) []Recommendation {
	priceRange := priceRangeFor(budgetLevel)

	out := make([]Recommendation, len(recs))
	for i, rec := range recs {
		factor, ok := PlatformPriceFactor[rec.Platform]
		if !ok {
			factor = 1.0
		}

		price := rec.EstimatedPrice
		if price < float64(priceRange.Min) {
			price = float64(priceRange.Min) + c.rng.Float64()*5
		} else if price > float64(priceRange.Max) {
			price = float64(priceRange.Max) - c.rng.Float64()*5
		}
		rec.EstimatedPrice = math.Round(price * factor)

		keyword := rec.JumpKeyword
		if keyword == "" {
			keyword = rec.Restaurant + " " + rec.FoodName
		}
		switch {
		case budgetLevel <= 2:
			if !strings.Contains(keyword, "优惠") && !strings.Contains(keyword, "套餐") {
				keyword += " 优惠"
			}
		case budgetLevel >= 4:
			if !strings.Contains(keyword, "品质") && !strings.Contains(keyword, "甄选") {
				keyword += " 品质"
			}
		}
		rec.JumpKeyword = keyword

		out[i] = rec
	}

	return out
}

// CalibrateAlternatives fills the fields the model is allowed to omit on
// alternatives (price defaults to the band minimum, regret score to 3)
// and then calibrates them like regular recommendations.
func (c *Calibrator) CalibrateAlternatives(alts []Recommendation, budgetLevel int) []Recommendation {
	priceRange := priceRangeFor(budgetLevel)

	filled := make([]Recommendation, len(alts))
	for i, alt := range alts {
		if alt.EstimatedPrice == 0 {
			alt.EstimatedPrice = float64(priceRange.Min)
		}
		if alt.RegretScore == 0 {
			alt.RegretScore = 3
		}
		filled[i] = alt
	}

	return c.Calibrate(filled, budgetLevel)
}

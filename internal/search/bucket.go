package search

import "suumo-checker/internal/models"

// Slider stops accepted by the portal's search filters.
var (
	priceSteps = buildPriceSteps()                                                  // 万円
	areaSteps  = []float64{20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 80, 90, 100} // ㎡
	ageTiers   = []int{0, 1, 3, 5, 7, 10, 15, 20, 25, 30}                           // 築年数
	walkTiers  = []int{1, 3, 5, 7, 10, 15, 20}                                      // 駅徒歩 (分)
)

func buildPriceSteps() []float64 {
	steps := make([]float64, 0, 48)
	for i := 6; i <= 40; i++ {
		steps = append(steps, float64(i)*0.5)
	}
	for v := 21; v <= 30; v++ {
		steps = append(steps, float64(v))
	}
	return append(steps, 35, 40, 50, 100)
}

// BucketPrice snaps a rent to the price slider. Lower is the largest stop <= price
// (nil below 3.0); upper is the smallest stop strictly greater (nil at 100 and above).
func BucketPrice(price float64) models.BucketRange {
	var r models.BucketRange
	for i, step := range priceSteps {
		if step <= price {
			r.Lower = &priceSteps[i]
		}
		if step > price && r.Upper == nil {
			r.Upper = &priceSteps[i]
		}
	}
	return copyRange(r)
}

// BucketArea snaps a floor area to the area slider. Unlike price, the upper stop
// may equal the area.
func BucketArea(area float64) models.BucketRange {
	var r models.BucketRange
	for i, step := range areaSteps {
		if step <= area {
			r.Lower = &areaSteps[i]
		}
		if step >= area && r.Upper == nil {
			r.Upper = &areaSteps[i]
		}
	}
	return copyRange(r)
}

// BucketAge rounds a building age up to the next tier. Nil in, or older than
// every tier, gives nil.
func BucketAge(age *int) *int {
	if age == nil {
		return nil
	}
	return roundUp(ageTiers, *age)
}

// BucketWalkMinutes rounds a walk time up to the next tier; nil above 20 minutes.
func BucketWalkMinutes(minutes int) *int {
	return roundUp(walkTiers, minutes)
}

func roundUp(tiers []int, v int) *int {
	for _, t := range tiers {
		if t >= v {
			tier := t
			return &tier
		}
	}
	return nil
}

// copyRange detaches the result from the step tables.
func copyRange(r models.BucketRange) models.BucketRange {
	var out models.BucketRange
	if r.Lower != nil {
		v := *r.Lower
		out.Lower = &v
	}
	if r.Upper != nil {
		v := *r.Upper
		out.Upper = &v
	}
	return out
}

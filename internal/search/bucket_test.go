package search

import (
	"math"
	"testing"
)

func ptrString(p *float64) string {
	if p == nil {
		return "nil"
	}
	return formatNumber(*p)
}

func intPtr(v int) *int { return &v }

func TestBucketPrice(t *testing.T) {
	tests := []struct {
		price        float64
		lower, upper string
	}{
		{9.9, "9.5", "10"},
		{9.5, "9.5", "10"},
		{3.0, "3", "3.5"},
		{2.5, "nil", "3"},
		{20.0, "20", "21"},
		{20.3, "20", "21"},
		{30, "30", "35"},
		{45, "40", "50"},
		{99.9, "50", "100"},
		{100, "100", "nil"},
		{150, "100", "nil"},
	}
	for _, tt := range tests {
		r := BucketPrice(tt.price)
		if got := ptrString(r.Lower); got != tt.lower {
			t.Errorf("BucketPrice(%v).Lower = %s, want %s", tt.price, got, tt.lower)
		}
		if got := ptrString(r.Upper); got != tt.upper {
			t.Errorf("BucketPrice(%v).Upper = %s, want %s", tt.price, got, tt.upper)
		}
	}
}

func TestBucketPriceUpperIsExclusive(t *testing.T) {
	for p := 3.0; p < 100; p += 0.05 {
		p = math.Round(p*100) / 100
		r := BucketPrice(p)
		if r.Lower == nil || r.Upper == nil {
			t.Fatalf("BucketPrice(%v): both sides should be defined", p)
		}
		if !(*r.Lower <= p && p < *r.Upper) {
			t.Fatalf("BucketPrice(%v) = [%v, %v), want lower <= p < upper", p, *r.Lower, *r.Upper)
		}
	}
}

func TestBucketArea(t *testing.T) {
	tests := []struct {
		area         float64
		lower, upper string
	}{
		{27.49, "25", "30"},
		{25, "25", "25"},
		{19.5, "nil", "20"},
		{72, "70", "80"},
		{100, "100", "100"},
		{120, "100", "nil"},
	}
	for _, tt := range tests {
		r := BucketArea(tt.area)
		if got := ptrString(r.Lower); got != tt.lower {
			t.Errorf("BucketArea(%v).Lower = %s, want %s", tt.area, got, tt.lower)
		}
		if got := ptrString(r.Upper); got != tt.upper {
			t.Errorf("BucketArea(%v).Upper = %s, want %s", tt.area, got, tt.upper)
		}
	}
}

func TestBucketAreaUpperIsInclusive(t *testing.T) {
	for a := 20.0; a <= 100; a += 0.25 {
		r := BucketArea(a)
		if r.Lower == nil || r.Upper == nil {
			t.Fatalf("BucketArea(%v): both sides should be defined", a)
		}
		if !(*r.Lower <= a && a <= *r.Upper) {
			t.Fatalf("BucketArea(%v) = [%v, %v], want lower <= a <= upper", a, *r.Lower, *r.Upper)
		}
	}
}

func TestBucketAge(t *testing.T) {
	tests := []struct {
		age  *int
		want *int
	}{
		{intPtr(10), intPtr(10)},
		{intPtr(11), intPtr(15)},
		{intPtr(0), intPtr(0)},
		{intPtr(2), intPtr(3)},
		{intPtr(30), intPtr(30)},
		{intPtr(31), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		got := BucketAge(tt.age)
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("BucketAge(%v) = %v, want %v", deref(tt.age), deref(got), deref(tt.want))
		}
	}
}

func TestBucketWalkMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    *int
	}{
		{15, intPtr(15)},
		{21, nil},
		{1, intPtr(1)},
		{2, intPtr(3)},
		{8, intPtr(10)},
		{20, intPtr(20)},
	}
	for _, tt := range tests {
		got := BucketWalkMinutes(tt.minutes)
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("BucketWalkMinutes(%d) = %v, want %v", tt.minutes, deref(got), deref(tt.want))
		}
	}
}

func TestBucketResultsDoNotAlias(t *testing.T) {
	r := BucketPrice(9.9)
	*r.Lower = 1000
	if again := BucketPrice(9.9); *again.Lower != 9.5 {
		t.Fatalf("step table was mutated: lower = %v", *again.Lower)
	}
}

func deref(p *int) any {
	if p == nil {
		return "nil"
	}
	return *p
}

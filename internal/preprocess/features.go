package preprocess

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FeatureCount is the width of the numeric model input
const FeatureCount = 8

// Feature indices, in the order the scaler statistics were computed
const (
	FeatLength = iota
	FeatNonAlnum
	FeatHyphens
	FeatDigits
	FeatDigitRatio
	FeatLabelLength
	FeatSubdomainLabels
	FeatEntropy
)

// FeatureVector holds the engineered numeric features of a domain
type FeatureVector [FeatureCount]float64

// Features computes the numeric feature vector for a target.
// Lengths are counted in code points and floored at 1 before any division.
func Features(t Target) FeatureVector {
	d := t.Domain
	n := utf8.RuneCountInString(d)
	length := max(n, 1)

	var nonAlnum, hyphens, digits int
	counts := make(map[rune]int, n)
	var order []rune
	for _, r := range d {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
		default:
			nonAlnum++
		}
		if r == '-' {
			hyphens++
		}
	}

	labelLength := length
	if i := strings.LastIndex(d, "."); i >= 0 {
		labelLength = utf8.RuneCountInString(d[:i])
	}

	extra := labelCount(t.Host) - labelCount(d)
	if extra < 0 {
		extra = 0
	}

	// summed in first-occurrence order so the result is reproducible to the bit
	var entropy float64
	for _, r := range order {
		p := float64(counts[r]) / float64(length)
		entropy -= p * math.Log2(p)
	}

	return FeatureVector{
		FeatLength:          float64(length),
		FeatNonAlnum:        float64(nonAlnum),
		FeatHyphens:         float64(hyphens),
		FeatDigits:          float64(digits),
		FeatDigitRatio:      float64(digits) / float64(length),
		FeatLabelLength:     float64(labelLength),
		FeatSubdomainLabels: float64(extra + 1),
		FeatEntropy:         entropy,
	}
}

func labelCount(s string) int {
	return strings.Count(s, ".") + 1
}

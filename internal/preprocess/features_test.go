package preprocess

import (
	"math"
	"testing"
)

func TestFeatures(t *testing.T) {
	// "a-1.b-2.com": 11 chars, 4 non-alnum ("-", ".", "-", "."), 2 hyphens, 2 digits
	target := Target{Host: "x.y.a-1.b-2.com", Domain: "a-1.b-2.com"}
	got := Features(target)

	want := FeatureVector{
		FeatLength:          11,
		FeatNonAlnum:        4,
		FeatHyphens:         2,
		FeatDigits:          2,
		FeatDigitRatio:      2.0 / 11.0,
		FeatLabelLength:     7, // "a-1.b-2"
		FeatSubdomainLabels: 3, // 5 host labels - 3 domain labels + 1
	}
	for i := 0; i < FeatEntropy; i++ {
		if got[i] != want[i] {
			t.Errorf("feature %d = %v, want %v", i, got[i], want[i])
		}
	}

	// counts: a1 -2 12 .2 b1 21 c1 o1 m1 over L=11
	counts := []float64{1, 2, 1, 2, 1, 1, 1, 1, 1}
	var entropy float64
	for _, c := range counts {
		p := c / 11
		entropy -= p * math.Log2(p)
	}
	if math.Abs(got[FeatEntropy]-entropy) > 1e-12 {
		t.Errorf("entropy = %v, want %v", got[FeatEntropy], entropy)
	}
}

func TestFeaturesEmptyDomain(t *testing.T) {
	got := Features(Target{})

	if got[FeatLength] != 1 {
		t.Fatalf("length = %v, want floor of 1", got[FeatLength])
	}
	if got[FeatDigitRatio] != 0 || got[FeatEntropy] != 0 {
		t.Fatalf("digit ratio/entropy = %v/%v, want 0/0", got[FeatDigitRatio], got[FeatEntropy])
	}
	if got[FeatLabelLength] != 1 {
		t.Fatalf("label length without a dot = %v, want 1", got[FeatLabelLength])
	}
	if got[FeatSubdomainLabels] != 1 {
		t.Fatalf("subdomain labels = %v, want 1", got[FeatSubdomainLabels])
	}
}

func TestFeaturesInvariants(t *testing.T) {
	urls := []string{
		"https://example.com",
		"http://1234567890.net",
		"http://a.b.c.d.e.f.example.co.uk",
		"xn--80ak6aa92e.com",
		"http://пример.рф",
		"---",
		"",
		"http://exa mple.com",
	}

	for _, u := range urls {
		f := Features(Extract(u))
		if len(f) != FeatureCount {
			t.Fatalf("len = %d, want %d", len(f), FeatureCount)
		}
		if r := f[FeatDigitRatio]; r < 0 || r > 1 {
			t.Errorf("%q: digit ratio %v out of [0,1]", u, r)
		}
		if f[FeatEntropy] < 0 {
			t.Errorf("%q: negative entropy %v", u, f[FeatEntropy])
		}
		if f[FeatSubdomainLabels] < 1 {
			t.Errorf("%q: subdomain labels %v below 1", u, f[FeatSubdomainLabels])
		}
	}
}

func TestFeaturesCountCodePoints(t *testing.T) {
	f := Features(Target{Host: "пример.рф", Domain: "пример.рф"})
	if f[FeatLength] != 9 {
		t.Fatalf("length = %v, want 9 code points", f[FeatLength])
	}
	if f[FeatNonAlnum] != 1 {
		t.Fatalf("non-alnum = %v, want 1", f[FeatNonAlnum])
	}
	if f[FeatLabelLength] != 6 {
		t.Fatalf("label length = %v, want 6", f[FeatLabelLength])
	}
}

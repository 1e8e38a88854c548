package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseDomainList(t *testing.T) {
	input := strings.Join([]string{
		"# header comment",
		"Example.COM",
		"   ",
		"0.0.0.0 ads.example.net",
		"127.0.0.1\ttracker.example.org # inline",
		":: v6-blocked.example",
		"trailing-dot.example.",
		"two words.example ignored",
	}, "\n")

	got, err := ParseDomainList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDomainList: %v", err)
	}

	want := []string{
		"example.com",
		"ads.example.net",
		"tracker.example.org",
		"v6-blocked.example",
		"trailing-dot.example",
		"two",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseDomainList = %v, want %v", got, want)
	}
}

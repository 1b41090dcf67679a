package store

import (
	"reflect"
	"testing"
)

func TestNatSort(t *testing.T) {
	names := []string{"img2.png", "img10.png", "img1.png"}
	natSort(names)
	want := []string{"img1.png", "img2.png", "img10.png"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("natSort = %v, want %v", names, want)
	}
}

func TestNatCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"img2", "img10", -1},
		{"img10", "img2", 1},
		{"img2", "img2", 0},
		{"a", "b", -1},
		{"IMG2", "img10", -1}, // case folded
		{"img002", "img2", 0}, // leading zeros do not change the value
		{"img2a", "img2", 1},
		{"10", "9", 1},
		{"", "a", -1},
	}
	for _, tt := range tests {
		got := natCompare(tt.a, tt.b)
		if sign(got) != tt.want {
			t.Errorf("natCompare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

package dialog

import "testing"

func TestExtractQuantity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"2잔", 2},
		{"3개 주세요", 3},
		{"10", 10},
		{"하나", 1},
		{"한 개", 1},
		{"두잔", 2},
		{"세 개", 3},
		{"다섯", 5},
		{"열", 10},
		{"아무거나", 0},
		{"", 0},
		{"많이요", 0},
		{"0개", 0},
	}
	for _, tc := range cases {
		if got := ExtractQuantity(tc.in); got != tc.want {
			t.Fatalf("ExtractQuantity(%q)=%d, want %d", tc.in, got, tc.want)
		}
	}
}

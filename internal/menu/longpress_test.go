package menu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

// feed runs samples through a detector and returns the sample indices at
// which a long press fired.
func feed(l *LongPress, samples []domain.Touch) []int {
	var fired []int
	for i, s := range samples {
		if _, ok := l.Observe(s); ok {
			fired = append(fired, i)
		}
	}
	return fired
}

func repeat(t domain.Touch, n int) []domain.Touch {
	out := make([]domain.Touch, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func TestLongPress(t *testing.T) {
	const threshold = 5
	a := domain.Press(domain.ElementPresetTile, 2)
	b := domain.Press(domain.ElementPresetTile, 3)

	tests := []struct {
		name    string
		samples []domain.Touch
		want    []int
	}{
		{
			name:    "exactly threshold plus one fires once",
			samples: repeat(a, threshold+1),
			want:    []int{threshold},
		},
		{
			name:    "threshold samples do not fire",
			samples: repeat(a, threshold),
			want:    nil,
		},
		{
			name:    "holding longer still fires once",
			samples: repeat(a, 40),
			want:    []int{threshold},
		},
		{
			name:    "moving to another element resets the dwell",
			samples: append(repeat(a, threshold-1), repeat(b, threshold)...),
			want:    nil,
		},
		{
			name:    "new element fires after its own full dwell",
			samples: append(repeat(a, threshold-1), repeat(b, threshold+1)...),
			want:    []int{threshold - 1 + threshold},
		},
		{
			name: "release resets",
			samples: append(append(repeat(a, threshold), domain.Released),
				repeat(a, threshold)...),
			want: nil,
		},
		{
			name: "each contiguous touch fires once",
			samples: append(append(repeat(a, threshold+1), domain.Released),
				repeat(a, threshold+1)...),
			want: []int{threshold, 2*threshold + 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(NewLongPress(threshold), tt.samples)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("fired at (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLongPressReportsElement(t *testing.T) {
	l := NewLongPress(1)
	tile := domain.Press(domain.ElementPresetTile, 7)
	l.Observe(tile)
	el, ok := l.Observe(tile)
	if !ok {
		t.Fatal("expected long press")
	}
	if diff := cmp.Diff(domain.Element{Kind: domain.ElementPresetTile, Index: 7}, el); diff != "" {
		t.Fatalf("element mismatch (-want +got):\n%s", diff)
	}
}

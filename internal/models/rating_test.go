package models

import (
	"math"
	"testing"
)

func TestRatingStatsSequenceOfCreations(t *testing.T) {
	ratings := []int{5, 3, 4, 1, 2, 5, 5}
	var s RatingStats
	sum := 0
	for _, r := range ratings {
		s = s.Apply(DeltaCreated(r))
		sum += r
	}
	if s.Count != len(ratings) {
		t.Errorf("Count = %d, want %d", s.Count, len(ratings))
	}
	if s.Value != sum {
		t.Errorf("Value = %d, want %d", s.Value, sum)
	}
	want := float64(sum) / float64(len(ratings))
	if math.Abs(s.Avg-want) > 1e-9 {
		t.Errorf("Avg = %v, want %v", s.Avg, want)
	}
}

func TestRatingStatsDeleteLastReview(t *testing.T) {
	s := RatingStats{}.Apply(DeltaCreated(4))
	s = s.Apply(DeltaDeleted(4))
	if s.Count != 0 || s.Value != 0 {
		t.Errorf("got %+v, want zero count and value", s)
	}
	if s.Avg != 0 || math.IsNaN(s.Avg) {
		t.Errorf("Avg = %v, want exactly 0", s.Avg)
	}
}

func TestRatingStatsCountIsNotFloored(t *testing.T) {
	// A deletion processed twice drives the count negative; only the
	// average is clamped.
	s := RatingStats{Count: 1, Value: 3, Avg: 3}
	s = s.Apply(DeltaDeleted(3)).Apply(DeltaDeleted(3))
	if s.Count != -1 {
		t.Errorf("Count = %d, want -1", s.Count)
	}
	if s.Avg != 0 {
		t.Errorf("Avg = %v, want 0", s.Avg)
	}
}

func TestRatingStatsItemScenario(t *testing.T) {
	s := RatingStats{Count: 2, Value: 9, Avg: 4.5}

	s = s.Apply(DeltaCreated(3))
	if s.Count != 3 || s.Value != 12 || s.Avg != 4.0 {
		t.Fatalf("after create: %+v, want 3/12/4.0", s)
	}

	s = s.Apply(DeltaChanged(3, 5))
	if s.Count != 3 || s.Value != 14 || math.Abs(s.Avg-14.0/3.0) > 1e-9 {
		t.Fatalf("after change: %+v, want 3/14/4.667", s)
	}

	s = s.Apply(DeltaDeleted(5))
	if s.Count != 2 || s.Value != 9 || s.Avg != 4.5 {
		t.Fatalf("after delete: %+v, want 2/9/4.5", s)
	}
}

func TestValidRating(t *testing.T) {
	for r, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		if got := ValidRating(r); got != want {
			t.Errorf("ValidRating(%d) = %v, want %v", r, got, want)
		}
	}
}

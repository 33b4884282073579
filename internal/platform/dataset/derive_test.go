package dataset

import (
	"testing"
	"time"
)

func TestAgeGroup_Boundaries(t *testing.T) {
	cases := []struct {
		age  float64
		want string
	}{
		{24, "<25"},
		{25, "<25"},
		{35, "25-35"},
		{36, "36-45"},
		{65, "56-65"},
		{66, "65+"},
		{0, "<25"},
		{100, "65+"},
	}
	for _, tc := range cases {
		got, ok := AgeGroup(tc.age)
		if !ok {
			t.Fatalf("AgeGroup(%v): unexpectedly unbound", tc.age)
		}
		if got != tc.want {
			t.Fatalf("AgeGroup(%v) = %q, want %q", tc.age, got, tc.want)
		}
	}
}

func TestAgeGroup_Unbound(t *testing.T) {
	for _, age := range []float64{-1, 100.5, 130} {
		if label, ok := AgeGroup(age); ok {
			t.Fatalf("AgeGroup(%v) = %q, want unbound", age, label)
		}
	}
}

func TestBMICategory_Boundaries(t *testing.T) {
	cases := []struct {
		bmi  float64
		want string
	}{
		// Lower bin boundaries are right-open: an exact edge value falls
		// into the upper bin.
		{25.0, "Overweight"},
		{18.5, "Normal"},
		{30.0, "Obese"},
		{35.0, "Severely Obese"},
		{17.2, "Underweight"},
		{24.999, "Normal"},
		{0, "Underweight"},
		{100, "Severely Obese"},
	}
	for _, tc := range cases {
		got, ok := BMICategory(tc.bmi)
		if !ok {
			t.Fatalf("BMICategory(%v): unexpectedly unbound", tc.bmi)
		}
		if got != tc.want {
			t.Fatalf("BMICategory(%v) = %q, want %q", tc.bmi, got, tc.want)
		}
	}
}

func TestBMICategory_Unbound(t *testing.T) {
	for _, bmi := range []float64{-0.1, 100.01, 250} {
		if label, ok := BMICategory(bmi); ok {
			t.Fatalf("BMICategory(%v) = %q, want unbound", bmi, label)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if label, ok := StatusLabel(0); !ok || label != "Healthy" {
		t.Fatalf("StatusLabel(0) = %q, %t", label, ok)
	}
	if label, ok := StatusLabel(1); !ok || label != "Diabetic" {
		t.Fatalf("StatusLabel(1) = %q, %t", label, ok)
	}
	if _, ok := StatusLabel(2); ok {
		t.Fatal("StatusLabel(2) should be unknown")
	}
}

func TestRowTimestamp(t *testing.T) {
	if got := RowTimestamp(0); !got.Equal(Epoch) {
		t.Fatalf("RowTimestamp(0) = %v, want %v", got, Epoch)
	}
	want := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	if got := RowTimestamp(31); !got.Equal(want) {
		t.Fatalf("RowTimestamp(31) = %v, want %v", got, want)
	}
}

func TestMonthBucket(t *testing.T) {
	if got := MonthBucket(time.Date(2023, 3, 15, 10, 0, 0, 0, time.UTC)); got != "2023-03" {
		t.Fatalf("MonthBucket = %q, want 2023-03", got)
	}
}

func TestWeekStart_MondayBased(t *testing.T) {
	// 2023-01-01 is a Sunday; its ISO week starts Monday 2022-12-26.
	sunday := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(sunday); !got.Equal(time.Date(2022, 12, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("WeekStart(sunday) = %v", got)
	}

	monday := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(monday); !got.Equal(monday) {
		t.Fatalf("WeekStart(monday) = %v, want itself", got)
	}

	thursday := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(thursday); !got.Equal(monday) {
		t.Fatalf("WeekStart(thursday) = %v, want %v", got, monday)
	}
}

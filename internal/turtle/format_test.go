package turtle

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3.0, "3"},
		{3.00001, "3"},
		{3.14159, "3.14"},
		{3.1, "3.1"},
		{-0.001, "0"},
		{math.Copysign(0, -1), "0"},
		{0, "0"},
		{12.345, "12.35"},
		{1.005, "1"},
		{2.675, "2.67"},
		{0.005, "0.01"},
		{0.125, "0.13"},
		{-0.125, "-0.13"},
		{0.625, "0.63"},
		{0.375, "0.38"},
		{-2.5, "-2.5"},
		{-400, "-400"},
		{299.999, "300"},
		{-179.996, "-180"},
		{1e6 + 0.004, "1000000"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEmittedMatchesFormat(t *testing.T) {
	for _, v := range []float64{3.14159, -0.001, 12.345, 0.125, 42} {
		got := FormatNumber(Emitted(v))
		if want := FormatNumber(v); got != want {
			t.Errorf("FormatNumber(Emitted(%v)) = %q, want %q", v, got, want)
		}
	}
}

func TestFormatPlain(t *testing.T) {
	cases := map[float64]string{
		800:    "800",
		2.5:    "2.5",
		0.1234: "0.1234",
		0:      "0",
	}
	for in, want := range cases {
		if got := formatPlain(in); got != want {
			t.Errorf("formatPlain(%v) = %q, want %q", in, got, want)
		}
	}
	if got := formatPlain(math.Copysign(0, -1)); got != "0" {
		t.Errorf("formatPlain(-0) = %q", got)
	}
}

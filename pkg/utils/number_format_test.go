package utils

import (
	"math"
	"testing"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		input    float64
		decimals int
		expected string
	}{
		{0, 0, "0"},
		{100, 0, "100"},
		{1000, 0, "1,000"},
		{123456, 0, "1,23,456"},
		{12345678, 0, "1,23,45,678"},
		{2847.50, 2, "2,847.5"},
		{2000, 2, "2,000"},
		{-1234.56, 2, "-1,234.56"},
		{math.NaN(), 2, Missing},
		{math.Inf(1), 0, Missing},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatQuantity(tt.input, tt.decimals)
			if result != tt.expected {
				t.Errorf("FormatQuantity(%f, %d) = %s, want %s", tt.input, tt.decimals, result, tt.expected)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{87.5, "87.5%"},
		{100, "100%"},
		{12.346, "12.35%"},
		{math.NaN(), Missing},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.input); got != tt.expected {
			t.Errorf("FormatPercent(%f) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

func TestMatchCrop(t *testing.T) {
	known := []string{"Rice", "Maize", "Buck wheat"}
	tests := []struct {
		input    string
		expected string
	}{
		{"Rice", "Rice"},
		{"rice", "Rice"},
		{"  MAIZE ", "Maize"},
		{"buck   wheat", "Buck wheat"},
		{"Quinoa", "Quinoa"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MatchCrop(tt.input, known); got != tt.expected {
				t.Errorf("MatchCrop(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

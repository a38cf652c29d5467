package services

import "testing"

func TestFormatIDR(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		expect string
	}{
		{"zero", 0, "Rp0"},
		{"under a thousand", 950, "Rp950"},
		{"thousands", 1500, "Rp1.500"},
		{"millions", 2500000, "Rp2.500.000"},
		{"billions", 1234567890, "Rp1.234.567.890"},
		{"rounds fractions", 999.6, "Rp1.000"},
		{"negative", -50000, "-Rp50.000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatIDR(tt.amount); got != tt.expect {
				t.Errorf("FormatIDR(%v) = %q, want %q", tt.amount, got, tt.expect)
			}
		})
	}
}

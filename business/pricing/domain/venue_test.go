package domain

import "testing"

func TestVenueTable(t *testing.T) {
	tests := []struct {
		venue    VenueID
		name     string
		protocol uint8
	}{
		{Uniswap, "uniswap", 0},
		{Sushiswap, "sushiswap", 2},
		{Quickswap, "quickswap", 3},
		{Apeswap, "apeswap", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.venue.Valid() {
				t.Fatal("expected valid venue")
			}
			if tt.venue.String() != tt.name {
				t.Errorf("String() = %s", tt.venue)
			}
			if tt.venue.Protocol() != tt.protocol {
				t.Errorf("Protocol() = %d, want %d", tt.venue.Protocol(), tt.protocol)
			}

			parsed, err := ParseVenue(tt.name)
			if err != nil || parsed != tt.venue {
				t.Errorf("ParseVenue(%s) = %v, %v", tt.name, parsed, err)
			}

			v := DefaultVenue(tt.venue)
			if v.Router == ([20]byte{}) || v.Factory == ([20]byte{}) {
				t.Errorf("default venue %s has zero addresses", tt.name)
			}
		})
	}
}

func TestVenueID_Invalid(t *testing.T) {
	bogus := VenueID(42)

	if bogus.Valid() {
		t.Error("42 should not be a valid venue")
	}
	if _, ok := bogus.Info(); ok {
		t.Error("Info() should fail for unknown venue")
	}
	if bogus.String() != "venue(42)" {
		t.Errorf("String() = %s", bogus)
	}
	if _, err := ParseVenue("pancakeswap"); err == nil {
		t.Error("expected error for unknown venue name")
	}
}

func TestParseVenue_CaseInsensitive(t *testing.T) {
	v, err := ParseVenue("  QuickSwap ")
	if err != nil || v != Quickswap {
		t.Errorf("ParseVenue() = %v, %v", v, err)
	}
	if len(AllVenues()) != 4 {
		t.Errorf("AllVenues() = %v", AllVenues())
	}
}

package turbomidi

import "testing"

// TestParseSpeed tests label and code parsing
func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in      string
		want    Multiplier
		wantErr bool
	}{
		{"1x", Speed1x, false},
		{"2X", Speed2x, false},
		{"3.3x", Speed3_3x, false},
		{" 8x ", Speed8x, false},
		{"7", Speed8x, false}, // Bare wire code
		{"11", Speed20x, false},
		{"20x", Speed20x, false},
		{"0", 0, true},
		{"12", 0, true},
		{"fast", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpeed(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpeed(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSpeed(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestSpeedLabels tests the enumeration
func TestSpeedLabels(t *testing.T) {
	labels := SpeedLabels()
	if len(labels) != 11 {
		t.Fatalf("len = %d, want 11", len(labels))
	}
	if labels[0] != "1x" || labels[10] != "20x" {
		t.Errorf("labels = %v", labels)
	}
}

// TestFactories tests role wiring through the facade
func TestFactories(t *testing.T) {
	a, b := newTestPipe()

	master := NewMaster(a, DefaultConfig(), nil)
	responder := NewResponder(b, DefaultConfig(), nil)

	if master.Role() != RoleMaster {
		t.Errorf("master role = %v", master.Role())
	}
	if responder.Role() != RoleResponder {
		t.Errorf("responder role = %v", responder.Role())
	}
	if NewAny(a, DefaultConfig(), nil).Role() != RoleAny {
		t.Errorf("any role wrong")
	}
}

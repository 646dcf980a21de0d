package turbomidi

import (
	"fmt"
	"strings"

	"elektron/turbomidi-go/pkg/types"
)

// Speed label helpers for configs and CLIs

// ParseSpeed turns a label ("8x", "3.3x") or a bare code ("7") into a
// multiplier
func ParseSpeed(s string) (Multiplier, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, m := range types.AllSpeeds() {
		if normalized == strings.ToLower(m.String()) {
			return m, nil
		}
		if normalized == fmt.Sprintf("%d", uint8(m)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown speed %q", s)
}

// SpeedLabels lists every speed label in ascending rate order
func SpeedLabels() []string {
	speeds := types.AllSpeeds()
	labels := make([]string, 0, len(speeds))
	for _, m := range speeds {
		labels = append(labels, m.String())
	}
	return labels
}

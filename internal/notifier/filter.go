package notifier

import "fmt"

// DeltaPolicy decides how many members of a delta are notified
type DeltaPolicy string

const (
	// DeltaAll notifies every newly added member.
	DeltaAll DeltaPolicy = "all"
	// DeltaFirstOnly looks at the first added member only and ignores the rest
	// of a batch.
	DeltaFirstOnly DeltaPolicy = "first"
)

// ParseDeltaPolicy parses the NOTIFY_DELTA_POLICY setting
func ParseDeltaPolicy(s string) (DeltaPolicy, error) {
	switch DeltaPolicy(s) {
	case "", DeltaAll:
		return DeltaAll, nil
	case DeltaFirstOnly:
		return DeltaFirstOnly, nil
	default:
		return "", fmt.Errorf("unknown delta policy %q", s)
	}
}

// ExcludeSelf applies policy to delta and drops entries equal to protected.
// Under DeltaFirstOnly a self-action in first position empties the result.
func ExcludeSelf(delta []string, protected string, policy DeltaPolicy) []string {
	if policy == DeltaFirstOnly && len(delta) > 1 {
		delta = delta[:1]
	}

	out := make([]string, 0, len(delta))
	for _, id := range delta {
		if id == "" || id == protected {
			continue
		}
		out = append(out, id)
	}
	return out
}

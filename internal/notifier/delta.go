package notifier

// AddedMembers returns the members of after that are absent from before,
// in the order they appear in after. Both slices are treated as sets.
func AddedMembers(before, after []string) []string {
	if len(after) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(before)+len(after))
	for _, id := range before {
		seen[id] = struct{}{}
	}

	var added []string
	for _, id := range after {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		added = append(added, id)
	}
	return added
}

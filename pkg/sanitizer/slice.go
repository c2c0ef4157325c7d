package sanitizer

func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" {
			continue
		}

		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

// NormalizeIDs keeps nil as nil so "unset" and "empty" stay distinguishable
// for service member lists.
func NormalizeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return NormalizeStringSlice(ids, TrimAndNormalize)
}

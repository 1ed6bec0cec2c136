package llm

// Usage is a nested counter map of provider-reported token accounting.
// Shape follows provider conventions, e.g.
// {"input_tokens": 120, "output_tokens": 45, "total_tokens": 165}.
type Usage map[string]any

// Merge recursively adds numeric counters from src into u. Nested maps
// merge key-by-key; missing keys on either side are tolerated. Non-numeric
// scalars keep the first value seen. This accumulates cost across the
// clustering and classification calls (and any internal chunking).
func (u Usage) Merge(src map[string]any) {
	for k, v := range src {
		switch val := v.(type) {
		case int:
			u[k] = numericValue(u[k]) + float64(val)
		case int64:
			u[k] = numericValue(u[k]) + float64(val)
		case float64:
			u[k] = numericValue(u[k]) + val
		case map[string]any:
			nested, ok := u[k].(Usage)
			if !ok {
				if plain, isMap := u[k].(map[string]any); isMap {
					nested = Usage(plain)
				} else {
					nested = Usage{}
				}
			}
			nested.Merge(val)
			u[k] = nested
		case Usage:
			u.Merge(map[string]any{k: map[string]any(val)})
		default:
			if _, exists := u[k]; !exists {
				u[k] = v
			}
		}
	}
}

func numericValue(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

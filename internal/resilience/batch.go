package resilience

import "strings"

// ShrinkBatch removes the item a provider rejected from batch. Matching is
// by normalized equality first, then substring. If the offender cannot be
// identified the first remaining item is removed, so a garbled provider
// message can never stall the loop. Returns the reduced batch and the items
// removed. The batch strictly shrinks whenever it is non-empty, so a retry
// loop around ShrinkBatch terminates in at most len(batch) iterations.
func ShrinkBatch(batch []string, offending string, norm func(string) string) (reduced []string, removed []string) {
	if len(batch) == 0 {
		return batch, nil
	}
	if norm == nil {
		norm = func(s string) string { return s }
	}

	target := norm(offending)

	// Exact normalized match.
	for i, item := range batch {
		if norm(item) == target {
			return cut(batch, i), []string{item}
		}
	}

	// Substring match. Provider messages often quote a fragment.
	if target != "" {
		for i, item := range batch {
			n := norm(item)
			if strings.Contains(n, target) || strings.Contains(target, n) {
				return cut(batch, i), []string{item}
			}
		}
	}

	// Unidentifiable offender: sacrifice the head to guarantee progress.
	return cut(batch, 0), []string{batch[0]}
}

func cut(batch []string, i int) []string {
	out := make([]string, 0, len(batch)-1)
	out = append(out, batch[:i]...)
	out = append(out, batch[i+1:]...)
	return out
}

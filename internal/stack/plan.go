package stack

import "slices"

// Plan computes the minimal pops and pushes that turn the applied order
// current into target. The longest common prefix stays in place, everything
// above it is popped top-down, and the rest of target is pushed bottom-up.
func Plan(current, target []string) (pops, pushes []string) {
	keep := 0
	for keep < len(current) && keep < len(target) && current[keep] == target[keep] {
		keep++
	}
	pops = slices.Clone(current[keep:])
	slices.Reverse(pops)
	pushes = slices.Clone(target[keep:])
	return pops, pushes
}

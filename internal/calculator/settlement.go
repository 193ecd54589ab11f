package calculator

import "sort"

// Simplify reduces net positions to point-to-point transfers using
// greedy largest-debtor/largest-creditor matching. The heuristic is not
// globally transaction-count-optimal, but it is deterministic and emits
// at most n-1 transfers for n non-zero positions.
//
// Positions must sum to exactly zero; callers holding legacy data with a
// known residue use SimplifyWithTolerance.
func Simplify(positions map[ParticipantID]NetPosition) ([]Transfer, error) {
	return SimplifyWithTolerance(positions, 0)
}

// party is one side of the settlement: a debtor or creditor with an
// outstanding (positive) amount.
type party struct {
	id          ParticipantID
	outstanding int64
}

// SimplifyWithTolerance is Simplify with a configurable zero-sum
// tolerance. A residue no larger than tolerance is dropped against the
// last matched party instead of failing the computation.
func SimplifyWithTolerance(positions map[ParticipantID]NetPosition, tolerance int64) ([]Transfer, error) {
	var sum int64
	for _, pos := range positions {
		sum += pos
	}
	if abs(sum) > tolerance {
		return nil, &UnbalancedInputError{Sum: sum, Tolerance: tolerance}
	}

	var debtors, creditors []party
	for id, pos := range positions {
		switch {
		case pos < 0:
			debtors = append(debtors, party{id: id, outstanding: -pos})
		case pos > 0:
			creditors = append(creditors, party{id: id, outstanding: pos})
		}
		// Settled participants never appear in the output.
	}

	// Map iteration order must not leak into the result.
	sort.Slice(debtors, func(a, b int) bool {
		if debtors[a].outstanding != debtors[b].outstanding {
			return debtors[a].outstanding > debtors[b].outstanding
		}
		return debtors[a].id < debtors[b].id
	})
	sort.Slice(creditors, func(a, b int) bool {
		if creditors[a].outstanding != creditors[b].outstanding {
			return creditors[a].outstanding > creditors[b].outstanding
		}
		return creditors[a].id < creditors[b].id
	})

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		// Re-select the extremes each round: a partially settled party
		// may no longer be the largest.
		d := largest(debtors)
		c := largest(creditors)

		amount := min64(debtors[d].outstanding, creditors[c].outstanding)
		transfers = append(transfers, Transfer{
			From:   debtors[d].id,
			To:     creditors[c].id,
			Amount: amount,
		})

		debtors[d].outstanding -= amount
		creditors[c].outstanding -= amount
		if debtors[d].outstanding == 0 {
			debtors = append(debtors[:d], debtors[d+1:]...)
		}
		if creditors[c].outstanding == 0 {
			creditors = append(creditors[:c], creditors[c+1:]...)
		}
	}

	return transfers, nil
}

// largest returns the index of the party with the biggest outstanding
// amount, ties broken by smaller id.
func largest(parties []party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		if parties[i].outstanding > parties[best].outstanding ||
			(parties[i].outstanding == parties[best].outstanding && parties[i].id < parties[best].id) {
			best = i
		}
	}
	return best
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

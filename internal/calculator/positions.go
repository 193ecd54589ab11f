package calculator

// ComputeNetPositions aggregates resolved shares and recorded payments
// into a per-participant net position: paid minus owed. Positive means
// the participant is owed money, negative means they owe.
//
// Every known participant appears in the result, including those that
// net to zero. A share or payment referencing a participant outside the
// known set fails the whole computation with UnknownParticipantError —
// no partial result is returned.
func ComputeNetPositions(participants []Participant, shares []ParticipantShare, payments []Payment) (map[ParticipantID]NetPosition, error) {
	positions := make(map[ParticipantID]NetPosition, len(participants))
	for _, p := range participants {
		positions[p.ID] = 0
	}

	for _, s := range shares {
		if _, known := positions[s.Participant]; !known {
			return nil, &UnknownParticipantError{Participant: s.Participant, Source: "share"}
		}
		positions[s.Participant] -= s.Amount
	}

	for _, p := range payments {
		if _, known := positions[p.Participant]; !known {
			return nil, &UnknownParticipantError{Participant: p.Participant, Source: "payment"}
		}
		positions[p.Participant] += p.Amount
	}

	return positions, nil
}

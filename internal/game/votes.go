package game

import "sort"

func (r *Room) handleVote(c clientCommand) error {
	if r.evaluationMode != ModeCommunityVote {
		return errStateConflict("this game is evaluated by the host")
	}
	if r.state != StateRoundEvaluating {
		return errStateConflict("voting is not open")
	}
	voter := r.players[c.playerID]
	if voter.Role != RoleActive {
		return errAuthorization("only active players may vote")
	}
	var payload VotePayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}
	if payload.OwnerID == voter.ID {
		return errValidation("you cannot vote on your own answer")
	}
	if _, ok := r.answers[payload.OwnerID]; !ok {
		return errNotFound("no answer to vote on")
	}

	if r.votes[payload.OwnerID] == nil {
		r.votes[payload.OwnerID] = make(map[string]bool)
	}
	// Re-voting before the tally closes replaces the earlier vote.
	r.votes[payload.OwnerID][voter.ID] = payload.Correct

	if r.allVotesIn() {
		r.finalizeVoting()
		return nil
	}
	r.broadcast()
	return nil
}

// allVotesIn reports whether every answer has a vote from every eligible
// voter. Eligible means active, connected and not the answer's owner;
// disconnected voters are not waited on.
func (r *Room) allVotesIn() bool {
	for owner := range r.answers {
		needed := 0
		for _, p := range r.players {
			if p.Role == RoleActive && p.connected() && p.ID != owner {
				needed++
			}
		}
		if needed == 0 {
			continue
		}
		cast := 0
		for voter := range r.votes[owner] {
			if p, ok := r.players[voter]; ok && p.Role == RoleActive && p.ID != owner {
				cast++
			}
		}
		if cast < needed {
			return false
		}
	}
	return true
}

// finalizeVoting turns the current tallies into terminal evaluations.
// Majority rules; a tie resolves to incorrect. The host may trigger this
// early, finalizing on whatever tallies exist.
func (r *Room) finalizeVoting() {
	owners := make([]string, 0, len(r.answers))
	for owner := range r.answers {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		return r.answers[owners[i]].Order < r.answers[owners[j]].Order
	})

	for _, owner := range owners {
		p := r.players[owner]
		a := r.answers[owner]
		if p == nil || a.Evaluation != nil {
			continue
		}
		correct, incorrect := r.tally(owner)
		r.applyEvaluation(p, a, correct > incorrect)
	}

	if r.checkAttrition() {
		return
	}
	r.finishEvaluation()
}

func (r *Room) tally(owner string) (correct, incorrect int) {
	for _, verdict := range r.votes[owner] {
		if verdict {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

package routernode

import (
	"errors"
	"fmt"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	specialistx "github.com/frontdeskhq/frontdesk/agent/specialist"
)

// DecideOwnership applies the routing policy for one message and reserves the
// chosen owner's slot. Tie-breaking is deterministic: current owner first,
// then lowest load, then lexicographic specialist ID.
func DecideOwnership(
	in *GraphState,
	registry specialistx.Registry,
	representativeID string,
	threshold float64,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	owner := in.Conv.Owner
	decision := contractx.RoutingDecision{
		ConversationID: in.ConversationID,
		Owner:          owner,
		PreviousOwner:  owner,
		Department:     in.Conv.Department,
		Degraded:       in.Degraded,
	}

	if in.Degraded || len(in.Intents) == 0 {
		if owner == "" {
			// Fail-safe for a brand-new conversation: the representative
			// always has room.
			if err := registry.TryReserve(representativeID); err != nil {
				return nil, err
			}
			in.ReservedOwner = representativeID
			decision.Owner = representativeID
			decision.Department = contractx.DepartmentGeneral
			decision.Handoff = true
		}
		in.Decision = decision
		return in, nil
	}

	top := in.Intents[0]
	decision.Confidence = top.Confidence

	if owner == "" {
		return decideInitial(in, registry, representativeID, decision)
	}
	return decideTransfer(in, registry, owner, threshold, decision)
}

// decideInitial picks the first owner: best-matching specialist with a free
// slot, walking the ranked intents; general or unserved labels fall to the
// representative.
func decideInitial(
	in *GraphState,
	registry specialistx.Registry,
	representativeID string,
	decision contractx.RoutingDecision,
) (*GraphState, error) {
	for _, intent := range in.Intents {
		if intent.Label == contractx.DepartmentGeneral {
			break
		}
		candidates := registry.CandidatesFor(intent.Label)
		if len(candidates) == 0 {
			continue
		}
		for _, cand := range candidates {
			err := registry.TryReserve(cand.ID)
			if err == nil {
				in.ReservedOwner = cand.ID
				decision.Owner = cand.ID
				decision.Department = intent.Label
				decision.Confidence = intent.Confidence
				decision.Handoff = true
				in.Decision = decision
				return in, nil
			}
			if !errors.Is(err, specialistx.ErrAtCapacity) {
				return nil, err
			}
		}
		if in.OverflowLabel == "" {
			in.OverflowLabel = intent.Label
		}
	}

	if err := registry.TryReserve(representativeID); err != nil {
		return nil, err
	}
	in.ReservedOwner = representativeID
	decision.Owner = representativeID
	decision.Department = contractx.DepartmentGeneral
	decision.Handoff = true
	decision.Overflow = in.OverflowLabel != ""
	in.Decision = decision
	return in, nil
}

// decideTransfer decides whether an owned conversation stays put or hands off.
// A handoff needs a ranked label above the confidence threshold that the
// current owner does not serve, plus a target with a free slot.
func decideTransfer(
	in *GraphState,
	registry specialistx.Registry,
	owner string,
	threshold float64,
	decision contractx.RoutingDecision,
) (*GraphState, error) {
	ownerSnap, ownerKnown := registry.Get(owner)

	top := in.Intents[0]
	if ownerKnown && ownerSnap.Serves(top.Label) {
		in.Decision = decision
		return in, nil
	}
	if top.Confidence < threshold {
		in.Decision = decision
		return in, nil
	}

	for _, intent := range in.Intents {
		if intent.Confidence < threshold {
			break
		}
		if ownerKnown && ownerSnap.Serves(intent.Label) {
			// The next-best label maps back to the current owner.
			in.Decision = decision
			return in, nil
		}
		candidates := registry.CandidatesFor(intent.Label)
		if len(candidates) == 0 {
			continue
		}
		for _, cand := range candidates {
			if cand.ID == owner {
				continue
			}
			err := registry.TryReserve(cand.ID)
			if err == nil {
				in.ReservedOwner = cand.ID
				in.ReleaseOnSuccess = owner
				decision.Owner = cand.ID
				decision.Department = intent.Label
				decision.Confidence = intent.Confidence
				decision.Handoff = true
				in.Decision = decision
				return in, nil
			}
			if !errors.Is(err, specialistx.ErrAtCapacity) {
				return nil, err
			}
		}
		if in.OverflowLabel == "" {
			in.OverflowLabel = intent.Label
		}
	}

	// Every eligible target was full: stay with the current owner and flag
	// the overflow so a later slot can pick the conversation up.
	decision.Overflow = in.OverflowLabel != ""
	in.Decision = decision
	return in, nil
}

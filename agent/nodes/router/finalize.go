package routernode

import (
	"fmt"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func FinalizeDecision(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Decision: in.Decision}, nil
}

package routernode

import (
	"context"
	"fmt"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	specialistx "github.com/frontdeskhq/frontdesk/agent/specialist"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

// PersistConversation writes the mutated conversation through the store's
// compare-and-swap. On any failure the freshly reserved slot is rolled back so
// a retry starts from a clean registry; the previous owner's slot is released
// only once the swap has landed.
func PersistConversation(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	registry specialistx.Registry,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := in.Conv.Validate(); err != nil {
		releaseReserved(in, registry)
		return nil, err
	}

	if err := store.CompareAndSwap(ctx, in.LoadedVersion, in.Conv); err != nil {
		releaseReserved(in, registry)
		return nil, err
	}

	if in.ReleaseOnSuccess != "" {
		registry.Release(in.ReleaseOnSuccess)
	}
	return in, nil
}

func releaseReserved(in *GraphState, registry specialistx.Registry) {
	if in.ReservedOwner != "" {
		registry.Release(in.ReservedOwner)
		in.ReservedOwner = ""
	}
}

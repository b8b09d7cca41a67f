package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/frontdeskhq/frontdesk/agent/nodes/router"
)

func (r *Router) compileRouteMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateConversation(ctx, in, r.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyIntent(ctx, in, r.classifier, r.cfg.ClassifyTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("decide_ownership",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DecideOwnership(in, r.registry, r.cfg.RepresentativeID, r.cfg.HandoffConfidenceThreshold)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node decide_ownership: %w", err)
	}

	if err := graph.AddLambdaNode("apply_decision",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyDecision(ctx, in, r.summarizer, r.cfg.SummaryMaxTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_decision: %w", err)
	}

	if err := graph.AddLambdaNode("persist_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistConversation(ctx, in, r.store, r.registry)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("record_outcome",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordOutcome(ctx, in, r.sink, r.auditLog)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_outcome: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_decision",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeDecision(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_decision: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_conversation"},
		{"load_or_create_conversation", "classify_intent"},
		{"classify_intent", "decide_ownership"},
		{"decide_ownership", "apply_decision"},
		{"apply_decision", "persist_conversation"},
		{"persist_conversation", "record_outcome"},
		{"record_outcome", "finalize_decision"},
		{"finalize_decision", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.route_message"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}

package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/sieve-ai/fileflow/internal/models"
)

// WorkflowLauncher implements services.WorkflowTrigger by creating a
// Workflows execution with the artifact manifest as argument.
type WorkflowLauncher struct {
	client     *executions.Client
	projectID  string
	location   string
	workflowID string
}

func NewWorkflowLauncher(ctx context.Context, projectID, location, workflowID string) (*WorkflowLauncher, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("workflowID must be provided to create a workflow launcher")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowLauncher{
		client:     client,
		projectID:  projectID,
		location:   location,
		workflowID: workflowID,
	}, nil
}

func (w *WorkflowLauncher) Close() error {
	return w.client.Close()
}

func (w *WorkflowLauncher) Trigger(ctx context.Context, handOff models.WorkflowHandOff) error {
	payload, err := json.Marshal(handOff)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", w.projectID, w.location, w.workflowID),
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	}
	if _, err := w.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

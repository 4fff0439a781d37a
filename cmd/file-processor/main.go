package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/sieve-ai/fileflow/internal/gcp"
	"github.com/sieve-ai/fileflow/internal/models"
	"github.com/sieve-ai/fileflow/internal/services"
)

var (
	orchestratorInstance *services.Orchestrator
	once                 sync.Once
	initErr              error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ProcessFile", processFile)
}

// main is required by the Go Functions Framework.
func main() {}

// processFile is the Cloud Function entry point, invoked once per
// object-finalize event.
func processFile(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		orchestratorInstance, _, initErr = gcp.BuildOrchestrator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	outcome, err := orchestratorInstance.Process(ctx, gcsEvent)
	if err != nil {
		// Malformed payloads and infrastructure faults; the transport may
		// redeliver, which the pipeline's idempotency makes safe.
		return err
	}

	// Both processed and isolated files are handled outcomes: the trigger
	// must not redeliver a file that already reached quarantine.
	slog.Info("Event handled.", "gcsObject", gcsEvent.Name, "outcome", string(outcome))
	return nil
}

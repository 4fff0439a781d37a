package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sieve-ai/fileflow/internal/services"
)

// BuildOrchestrator assembles the full pipeline with GCP-backed
// collaborators from environment configuration. Ledger and workflow trigger
// are optional and omitted when not configured.
func BuildOrchestrator(ctx context.Context) (*services.Orchestrator, *services.Config, error) {
	cfg, err := services.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := NewStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	transcriber, err := NewSpeechTranscriber(ctx, services.GetEnv("SPEECH_LANGUAGE_CODE", "es-ES"))
	if err != nil {
		return nil, nil, err
	}

	recognizer, err := NewVisionRecognizer(ctx)
	if err != nil {
		return nil, nil, err
	}

	vertexClient, err := NewVertexClient(ctx, cfg.ProjectID, cfg.VertexAIRegion, store)
	if err != nil {
		return nil, nil, err
	}

	var ledger services.Ledger
	if services.GetEnv("FIRESTORE_LEDGER", "true") == "true" {
		firestoreClient, err := NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		ledger = NewFirestoreLedger(firestoreClient, services.GetEnv("FIRESTORE_COLLECTION", "ingestions"))
	}

	var trigger services.WorkflowTrigger
	if cfg.WorkflowID != "" {
		launcher, err := NewWorkflowLauncher(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			return nil, nil, err
		}
		trigger = launcher
	}

	classifier := services.NewClassifier(store)
	validator := services.NewValidator(classifier, store, cfg.MaxFileSize)
	quarantine := services.NewQuarantineSink(store, ledger, cfg.QuarantineBucket, cfg.QuarantinePrefix)
	dispatcher := services.NewDispatcher(store, transcriber, recognizer, vertexClient, cfg.CollaboratorTimeout)
	pipeline := services.NewArtifactPipeline(store, vertexClient, cfg)

	orchestrator := services.NewOrchestrator(cfg, store, validator, dispatcher, pipeline, quarantine, ledger, trigger)
	slog.Info("File processor initialized.", "dataLakeBucket", cfg.DataLakeBucket, "curatedBucket", cfg.CuratedBucket)
	return orchestrator, cfg, nil
}

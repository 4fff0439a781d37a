package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sieve-ai/fileflow/internal/models"
)

// Outcome is what a caller observes for one ingestion event.
type Outcome string

const (
	// OutcomeProcessed covers both a completed artifact chain and the
	// benign rediscovery of an already-processed file.
	OutcomeProcessed Outcome = "processed"
	// OutcomeIsolated means the file was moved to quarantine with a reason.
	OutcomeIsolated Outcome = "isolated"
	// OutcomeSkipped means the event referenced nothing to process.
	OutcomeSkipped Outcome = "skipped"
)

// WorkflowTrigger hands a completed file off to a downstream workflow.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, handOff models.WorkflowHandOff) error
}

// Orchestrator drives one ingestion event end to end: admission, dispatch,
// artifact derivation, and source cleanup, with quarantine as the single
// failure sink.
type Orchestrator struct {
	cfg        *Config
	store      ObjectStore
	validator  *Validator
	dispatcher *Dispatcher
	pipeline   *ArtifactPipeline
	quarantine *QuarantineSink
	ledger     Ledger
	trigger    WorkflowTrigger
}

// NewOrchestrator wires the pipeline components. Ledger and trigger may be
// nil when those integrations are not configured.
func NewOrchestrator(cfg *Config, store ObjectStore, validator *Validator, dispatcher *Dispatcher, pipeline *ArtifactPipeline, quarantine *QuarantineSink, ledger Ledger, trigger WorkflowTrigger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		validator:  validator,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		quarantine: quarantine,
		ledger:     ledger,
		trigger:    trigger,
	}
}

// Process handles a single object-finalize event. Component failures end in
// quarantine and a non-error outcome; only malformed events and
// infrastructure faults return an error.
func (o *Orchestrator) Process(ctx context.Context, event models.GCSEvent) (Outcome, error) {
	if event.Bucket == "" || event.Name == "" {
		return OutcomeSkipped, fmt.Errorf("event payload must carry bucket and name, got bucket=%q name=%q", event.Bucket, event.Name)
	}

	logCtx := slog.With("gcsBucket", event.Bucket, "gcsObject", event.Name)

	if skip, why := o.shouldSkip(event.Name); skip {
		logCtx.Info("Skipping event.", "why", why)
		return OutcomeSkipped, nil
	}

	ref := models.ObjectRef{Bucket: event.Bucket, Path: event.Name}

	// Under at-least-once delivery, a missing source means a previous
	// invocation already reached a terminal state for this file.
	if _, err := o.store.Stat(ctx, ref); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logCtx.Info("Source object already gone; treating as processed.")
			return OutcomeProcessed, nil
		}
		return OutcomeSkipped, fmt.Errorf("failed to stat source object: %w", err)
	}

	desc := o.validator.Validate(ctx, ref)
	if !desc.Valid {
		logCtx.Warn("File rejected at admission.", "reason", desc.Reason)
		return o.isolate(ctx, ref, desc.Reason)
	}

	record, err := o.dispatcher.Dispatch(ctx, desc)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logCtx.Info("Source object vanished during dispatch; treating as processed.")
			return OutcomeProcessed, nil
		}
		logCtx.Warn("Dispatch failed.", "error", err)
		return o.isolate(ctx, ref, err.Error())
	}

	artifacts, err := o.pipeline.Run(ctx, ref, record)
	if err != nil {
		logCtx.Warn("Artifact pipeline failed.", "error", err)
		return o.isolate(ctx, ref, err.Error())
	}

	if err := o.store.Delete(ctx, ref); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return OutcomeSkipped, fmt.Errorf("failed to delete source object after processing: %w", err)
	}

	o.recordCompletion(ctx, ref, artifacts)
	o.handOff(ctx, ref, artifacts, logCtx)

	logCtx.Info("File processed.", "artifactCount", len(artifacts))
	return OutcomeProcessed, nil
}

// shouldSkip filters directory markers and objects in namespaces the
// pipeline itself writes to, so derived objects never re-enter the pipeline.
func (o *Orchestrator) shouldSkip(name string) (bool, string) {
	if strings.HasSuffix(name, "/") {
		return true, "directory marker"
	}
	for _, prefix := range []string{
		o.cfg.QuarantinePrefix,
		o.cfg.StructuredPrefix,
		o.cfg.TabularPrefix,
		o.cfg.ReportsPrefix,
		o.cfg.FinalReportsPrefix,
	} {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true, "object inside " + prefix
		}
	}
	return false, ""
}

func (o *Orchestrator) isolate(ctx context.Context, ref models.ObjectRef, reason string) (Outcome, error) {
	if err := o.quarantine.Quarantine(ctx, ref, reason); err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to quarantine %s: %w", ref.URI(), err)
	}
	return OutcomeIsolated, nil
}

func (o *Orchestrator) recordCompletion(ctx context.Context, ref models.ObjectRef, artifacts []models.Artifact) {
	if o.ledger == nil {
		return
	}
	uris := make([]string, len(artifacts))
	for i, a := range artifacts {
		uris[i] = a.Ref.URI()
	}
	entry := models.LedgerEntry{
		Bucket:    ref.Bucket,
		Object:    ref.Path,
		Status:    models.StatusProcessed,
		Artifacts: uris,
		CreatedAt: time.Now(),
	}
	if err := o.ledger.Record(ctx, entry); err != nil {
		slog.Error("Failed to record completion in ledger.", "gcsObject", ref.Path, "error", err)
	}
}

// handOff triggers the optional downstream workflow. The source object is
// already deleted at this point, so a trigger failure is logged instead of
// returned; redelivery would only find the benign-success path.
func (o *Orchestrator) handOff(ctx context.Context, ref models.ObjectRef, artifacts []models.Artifact, logCtx *slog.Logger) {
	if o.trigger == nil {
		return
	}
	uris := make([]string, len(artifacts))
	for i, a := range artifacts {
		uris[i] = a.Ref.URI()
	}
	handOff := models.WorkflowHandOff{
		Bucket:    ref.Bucket,
		Object:    ref.Path,
		Artifacts: uris,
	}
	if err := o.trigger.Trigger(ctx, handOff); err != nil {
		logCtx.Error("Failed to trigger downstream workflow.", "error", err)
		return
	}
	logCtx.Info("Hand-off to workflow complete.")
}

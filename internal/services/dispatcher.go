package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sieve-ai/fileflow/internal/models"
)

// Transcriber converts an audio object into text.
type Transcriber interface {
	Transcribe(ctx context.Context, ref models.ObjectRef) (string, error)
}

// TextRecognizer performs OCR on an image object.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, ref models.ObjectRef) (string, error)
}

// StructuredExtractor turns normalized text into a structured JSON response.
// The returned string is the raw model reply; it is not guaranteed to be
// pure JSON.
type StructuredExtractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// Analyst produces an analytic summary of a tabular artifact.
type Analyst interface {
	Summarize(ctx context.Context, ref models.ObjectRef) (string, error)
}

// Dispatcher routes an admitted FileDescriptor to the matching extraction
// collaborator and normalizes the result into a StructuredRecord. Every
// failure path surfaces as an error for the orchestrator to quarantine;
// nothing is swallowed here.
type Dispatcher struct {
	store       ObjectStore
	transcriber Transcriber
	recognizer  TextRecognizer
	extractor   StructuredExtractor
	timeout     time.Duration
}

func NewDispatcher(store ObjectStore, transcriber Transcriber, recognizer TextRecognizer, extractor StructuredExtractor, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		store:       store,
		transcriber: transcriber,
		recognizer:  recognizer,
		extractor:   extractor,
		timeout:     timeout,
	}
}

// Dispatch runs the category state machine for desc and returns the
// structured record produced by the extraction collaborator.
func (d *Dispatcher) Dispatch(ctx context.Context, desc models.FileDescriptor) (*models.StructuredRecord, error) {
	logCtx := slog.With("gcsObject", desc.Ref.Path, "category", desc.Category)

	var text string
	switch desc.Category {
	case models.CategoryAudio:
		transcript, err := d.bounded(ctx, func(callCtx context.Context) (string, error) {
			return d.transcriber.Transcribe(callCtx, desc.Ref)
		})
		if err != nil {
			return nil, &CollaboratorError{Collaborator: "transcription", Err: err}
		}
		// Transcripts are never a terminal artifact; they feed
		// structured extraction like any other text.
		text = transcript

	case models.CategoryImage:
		recognized, err := d.bounded(ctx, func(callCtx context.Context) (string, error) {
			return d.recognizer.RecognizeText(callCtx, desc.Ref)
		})
		if err != nil {
			return nil, &CollaboratorError{Collaborator: "ocr", Err: err}
		}
		text = recognized

	case models.CategoryText, models.CategoryData:
		data, err := d.store.Read(ctx, desc.Ref)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch object for extraction: %w", err)
		}
		text, err = extractText(desc.Signature, data)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unhandled category: %s", desc.Category)
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoExtractableText
	}
	logCtx.Info("Text normalized for extraction.", "length", len(text))

	reply, err := d.bounded(ctx, func(callCtx context.Context) (string, error) {
		return d.extractor.Extract(callCtx, text)
	})
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "structured-extraction", Err: err}
	}

	record, err := parseExtractionReply(reply)
	if err != nil {
		return nil, err
	}
	logCtx.Info("Structured record produced.",
		"hasDataframe", record.DataframePackage != nil,
		"hasReport", record.GeneratedReport != nil)
	return record, nil
}

func (d *Dispatcher) bounded(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	if d.timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return call(callCtx)
}

// parseExtractionReply locates the JSON object in a free-text model reply by
// taking the substring between the first '{' and the last '}'. Extraction
// collaborators are not guaranteed to return pure JSON, so this heuristic is
// deliberate, documented behavior.
func parseExtractionReply(reply string) (*models.StructuredRecord, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &FormatError{Detail: "no JSON object found in extraction response"}
	}
	raw := reply[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, &FormatError{Detail: fmt.Sprintf("extraction response is not valid JSON after trimming: %v", err)}
	}

	record := models.StructuredRecord{Fields: fields}
	var sections struct {
		DataframePackage *models.DataframePackage `json:"dataframe_package"`
		GeneratedReport  *models.GeneratedReport  `json:"generated_report"`
	}
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, &FormatError{Detail: fmt.Sprintf("malformed dataframe_package or generated_report section: %v", err)}
	}
	record.DataframePackage = sections.DataframePackage
	record.GeneratedReport = sections.GeneratedReport
	return &record, nil
}

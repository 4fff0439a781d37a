package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/sieve-ai/fileflow/internal/models"
)

// DegradedAnalysisContent replaces the enriched report when the analytic
// collaborator fails; the narrative report already exists as a fallback.
const DegradedAnalysisContent = "Ocurrió un error al generar el reporte de análisis. Este paso fue omitido."

const reportSeparator = "========================================"

// ArtifactPipeline derives and persists the chain of artifacts for one
// structured record. Stages are strictly ordered and each is gated on the
// previous stage's success; absent upstream data skips a stage without
// failing the file.
type ArtifactPipeline struct {
	store   ObjectStore
	analyst Analyst
	cfg     *Config
}

func NewArtifactPipeline(store ObjectStore, analyst Analyst, cfg *Config) *ArtifactPipeline {
	return &ArtifactPipeline{store: store, analyst: analyst, cfg: cfg}
}

// Run executes all four stages for the record extracted from source and
// returns the artifacts written. An error aborts the file; documented skips
// do not.
func (p *ArtifactPipeline) Run(ctx context.Context, source models.ObjectRef, record *models.StructuredRecord) ([]models.Artifact, error) {
	base := strings.TrimSuffix(path.Base(source.Path), path.Ext(source.Path))
	logCtx := slog.With("gcsObject", source.Path, "baseName", base)
	var artifacts []models.Artifact

	structuredRef, err := p.writeStructuredExport(ctx, base, record)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, models.Artifact{Kind: models.ArtifactStructuredExport, Ref: structuredRef})

	tabularRef, wrote, err := p.writeTabularExport(ctx, base, record)
	if err != nil {
		return nil, err
	}
	if wrote {
		artifacts = append(artifacts, models.Artifact{Kind: models.ArtifactTabularExport, Ref: tabularRef})
	} else {
		logCtx.Info("Tabular export skipped; no dataframe rows in record.")
	}

	// The narrative report does not depend on the tabular stage.
	if record.GeneratedReport != nil {
		narrativeRef := models.ObjectRef{
			Bucket: p.cfg.DataLakeBucket,
			Path:   p.cfg.ReportsPrefix + base + "_report.txt",
		}
		content := RenderNarrativeReport(record.GeneratedReport)
		if err := p.store.Write(ctx, narrativeRef, []byte(content), "text/plain"); err != nil {
			return nil, fmt.Errorf("failed to write narrative report: %w", err)
		}
		artifacts = append(artifacts, models.Artifact{Kind: models.ArtifactNarrativeReport, Ref: narrativeRef})
	} else {
		logCtx.Info("Narrative report skipped; record carries no generated_report.")
	}

	if wrote {
		enrichedRef, err := p.writeEnrichedReport(ctx, base, tabularRef)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, models.Artifact{Kind: models.ArtifactEnrichedReport, Ref: enrichedRef})
	} else {
		logCtx.Info("Enriched report skipped; tabular export did not run.")
	}

	logCtx.Info("Artifact pipeline complete.", "artifactCount", len(artifacts))
	return artifacts, nil
}

func (p *ArtifactPipeline) writeStructuredExport(ctx context.Context, base string, record *models.StructuredRecord) (models.ObjectRef, error) {
	ref := models.ObjectRef{
		Bucket: p.cfg.DataLakeBucket,
		Path:   p.cfg.StructuredPrefix + base + ".json",
	}
	content, err := json.MarshalIndent(record.Fields, "", "  ")
	if err != nil {
		return ref, fmt.Errorf("failed to serialize structured record: %w", err)
	}
	if err := p.store.Write(ctx, ref, content, "application/json"); err != nil {
		return ref, fmt.Errorf("failed to write structured export: %w", err)
	}
	return ref, nil
}

func (p *ArtifactPipeline) writeTabularExport(ctx context.Context, base string, record *models.StructuredRecord) (models.ObjectRef, bool, error) {
	var ref models.ObjectRef
	if record.DataframePackage == nil || len(record.DataframePackage.Data) == 0 {
		return ref, false, nil
	}

	content, err := flattenRows(record.DataframePackage.Data)
	if err != nil {
		return ref, false, fmt.Errorf("failed to flatten dataframe rows: %w", err)
	}

	ref = models.ObjectRef{
		Bucket: p.cfg.CuratedBucket,
		Path:   p.cfg.TabularPrefix + base + ".csv",
	}
	if err := p.store.Write(ctx, ref, content, "text/csv"); err != nil {
		return ref, false, fmt.Errorf("failed to write tabular export: %w", err)
	}
	return ref, true, nil
}

func (p *ArtifactPipeline) writeEnrichedReport(ctx context.Context, base string, tabularRef models.ObjectRef) (models.ObjectRef, error) {
	ref := models.ObjectRef{
		Bucket: p.cfg.CuratedBucket,
		Path:   p.cfg.FinalReportsPrefix + base + "_report.txt",
	}

	content := DegradedAnalysisContent
	callCtx := ctx
	if p.cfg.CollaboratorTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.CollaboratorTimeout)
		defer cancel()
	}
	summary, err := p.analyst.Summarize(callCtx, tabularRef)
	if err != nil {
		// Analytic failure never aborts the file.
		slog.Warn("Analytic summarization failed; writing degraded content.", "tabularArtifact", tabularRef.URI(), "error", err)
	} else if strings.TrimSpace(summary) != "" {
		content = summary
	}

	if err := p.store.Write(ctx, ref, []byte(content), "text/plain"); err != nil {
		return ref, fmt.Errorf("failed to write enriched report: %w", err)
	}
	return ref, nil
}

// flattenRows renders the row list as CSV with the union of all keys across
// rows as columns, sorted for determinism. Missing fields render empty.
func flattenRows(rows []map[string]any) ([]byte, error) {
	columnSet := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			columnSet[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for key := range columnSet {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			cells[i] = formatCell(row[column])
		}
		if err := writer.Write(cells); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// RenderNarrativeReport produces the deterministic plain-text report for a
// generated_report section.
func RenderNarrativeReport(report *models.GeneratedReport) string {
	var b strings.Builder
	b.WriteString("Tipo de Reporte: " + report.ReportType + "\n")
	b.WriteString(reportSeparator + "\n\n")

	if len(report.VariablesAndStandards) > 0 {
		b.WriteString("Variables y Estándares:\n")
		for _, variable := range report.VariablesAndStandards {
			b.WriteString("- " + variable + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Observaciones:\n")
	if strings.TrimSpace(report.Findings.Observations) != "" {
		b.WriteString(report.Findings.Observations + "\n")
	} else {
		b.WriteString("Sin observaciones.\n")
	}
	b.WriteString("\n")

	b.WriteString("Puntos Clave:\n")
	if len(report.Findings.KeyPoints) == 0 {
		b.WriteString("Sin puntos clave.\n")
	} else {
		for _, point := range report.Findings.KeyPoints {
			b.WriteString("- " + point + "\n")
		}
	}
	return b.String()
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ai/fileflow/internal/models"
)

func fullRecord() *models.StructuredRecord {
	return &models.StructuredRecord{
		Fields: map[string]any{
			"dataframe_package": map[string]any{
				"data": []any{map[string]any{"cliente": "ACME", "total": 12.5}},
			},
		},
		DataframePackage: &models.DataframePackage{
			Data: []map[string]any{
				{"cliente": "ACME", "total": 12.5, "activo": true},
				{"cliente": "Initech", "pais": "España"},
			},
		},
		GeneratedReport: &models.GeneratedReport{
			ReportType: "sales_report",
			Findings: models.Findings{
				Observations: "Ventas al alza.",
				KeyPoints:    []string{"crecimiento sostenido"},
			},
		},
	}
}

func TestPipelineFullChain(t *testing.T) {
	store := newMemStore()
	analyst := &fakeAnalyst{summary: "Resumen ejecutivo de las ventas."}
	pipeline := NewArtifactPipeline(store, analyst, testConfig())

	source := models.ObjectRef{Bucket: "data-lake", Path: "raw/storage/ventas.json"}
	artifacts, err := pipeline.Run(context.Background(), source, fullRecord())
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	kinds := make([]models.ArtifactKind, len(artifacts))
	for i, a := range artifacts {
		kinds[i] = a.Kind
	}
	assert.Equal(t, []models.ArtifactKind{
		models.ArtifactStructuredExport,
		models.ArtifactTabularExport,
		models.ArtifactNarrativeReport,
		models.ArtifactEnrichedReport,
	}, kinds)

	assert.True(t, store.has(models.ObjectRef{Bucket: "data-lake", Path: "processed/processed_results/ventas.json"}))
	assert.True(t, store.has(models.ObjectRef{Bucket: "curated", Path: "curated/structured_results/ventas.csv"}))
	assert.True(t, store.has(models.ObjectRef{Bucket: "data-lake", Path: "processed/raw_reports/ventas_report.txt"}))

	enriched := store.get(models.ObjectRef{Bucket: "curated", Path: "final_reports/ventas_report.txt"})
	assert.Equal(t, "Resumen ejecutivo de las ventas.", string(enriched))
}

func TestPipelineTabularUnionOfColumns(t *testing.T) {
	store := newMemStore()
	pipeline := NewArtifactPipeline(store, &fakeAnalyst{summary: "ok"}, testConfig())

	source := models.ObjectRef{Bucket: "data-lake", Path: "raw/storage/ventas.json"}
	_, err := pipeline.Run(context.Background(), source, fullRecord())
	require.NoError(t, err)

	csvContent := string(store.get(models.ObjectRef{Bucket: "curated", Path: "curated/structured_results/ventas.csv"}))
	// Union of all keys across rows, sorted; missing fields render empty.
	assert.Equal(t, "activo,cliente,pais,total\ntrue,ACME,,12.5\n,Initech,España,\n", csvContent)
}

func TestPipelineSkipsTabularAndEnrichedOnEmptyData(t *testing.T) {
	store := newMemStore()
	analyst := &fakeAnalyst{summary: "should not be called"}
	pipeline := NewArtifactPipeline(store, analyst, testConfig())

	record := fullRecord()
	record.DataframePackage = &models.DataframePackage{Data: []map[string]any{}}

	source := models.ObjectRef{Bucket: "data-lake", Path: "raw/storage/ventas.json"}
	artifacts, err := pipeline.Run(context.Background(), source, record)
	require.NoError(t, err)

	// Structured export and narrative report still run; the tabular stage
	// and its dependent enriched stage are skipped, not failed.
	require.Len(t, artifacts, 2)
	assert.Equal(t, models.ArtifactStructuredExport, artifacts[0].Kind)
	assert.Equal(t, models.ArtifactNarrativeReport, artifacts[1].Kind)
	assert.Zero(t, analyst.calls)
	assert.False(t, store.has(models.ObjectRef{Bucket: "curated", Path: "curated/structured_results/ventas.csv"}))
	assert.False(t, store.has(models.ObjectRef{Bucket: "curated", Path: "final_reports/ventas_report.txt"}))
}

func TestPipelineAnalystFailureDegradesToDiagnostic(t *testing.T) {
	store := newMemStore()
	analyst := &fakeAnalyst{err: errors.New("analysis backend down")}
	pipeline := NewArtifactPipeline(store, analyst, testConfig())

	source := models.ObjectRef{Bucket: "data-lake", Path: "raw/storage/ventas.json"}
	artifacts, err := pipeline.Run(context.Background(), source, fullRecord())
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	enriched := store.get(models.ObjectRef{Bucket: "curated", Path: "final_reports/ventas_report.txt"})
	assert.Equal(t, DegradedAnalysisContent, string(enriched))
}

func TestPipelineNoReportSection(t *testing.T) {
	store := newMemStore()
	pipeline := NewArtifactPipeline(store, &fakeAnalyst{summary: "ok"}, testConfig())

	record := fullRecord()
	record.GeneratedReport = nil

	source := models.ObjectRef{Bucket: "data-lake", Path: "raw/storage/ventas.json"}
	artifacts, err := pipeline.Run(context.Background(), source, record)
	require.NoError(t, err)

	require.Len(t, artifacts, 3)
	assert.False(t, store.has(models.ObjectRef{Bucket: "data-lake", Path: "processed/raw_reports/ventas_report.txt"}))
}

func TestRenderNarrativeReport(t *testing.T) {
	report := &models.GeneratedReport{
		ReportType: "bias_report",
		Findings: models.Findings{
			Observations: "X",
			KeyPoints:    []string{"a", "b"},
		},
	}

	content := RenderNarrativeReport(report)
	assert.Contains(t, content, "Tipo de Reporte: bias_report\n")
	assert.Contains(t, content, reportSeparator)
	assert.Contains(t, content, "Observaciones:\nX\n")
	assert.Contains(t, content, "- a\n- b\n")
}

func TestRenderNarrativeReportSentinels(t *testing.T) {
	report := &models.GeneratedReport{ReportType: "empty_report"}

	content := RenderNarrativeReport(report)
	assert.Contains(t, content, "Sin observaciones.")
	assert.Contains(t, content, "Sin puntos clave.")
}

func TestRenderNarrativeReportVariables(t *testing.T) {
	report := &models.GeneratedReport{
		ReportType:            "sales_report",
		VariablesAndStandards: []string{"revenue", "growth_rate"},
		Findings:              models.Findings{Observations: "ok"},
	}

	content := RenderNarrativeReport(report)
	assert.Contains(t, content, "Variables y Estándares:\n- revenue\n- growth_rate\n")
}

package services

import (
	"fmt"
	"os"
	"time"
)

// Config carries every destination prefix, store identifier, and limit used
// by the pipeline. Constructed once per process and passed into the
// orchestrator; no component reads the environment on its own.
type Config struct {
	ProjectID      string
	VertexAIRegion string

	// DataLakeBucket receives raw files and the structured/narrative
	// artifacts. CuratedBucket receives the tabular and enriched artifacts.
	// QuarantineBucket defaults to DataLakeBucket.
	DataLakeBucket   string
	CuratedBucket    string
	QuarantineBucket string

	QuarantinePrefix   string
	StructuredPrefix   string
	TabularPrefix      string
	ReportsPrefix      string
	FinalReportsPrefix string

	// Optional downstream workflow to trigger after successful completion.
	WorkflowID       string
	WorkflowLocation string

	// MaxFileSize is the admission size limit in bytes.
	MaxFileSize int64

	// CollaboratorTimeout bounds each external extraction call.
	CollaboratorTimeout time.Duration
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// LoadConfig builds a Config from the environment and validates the
// required fields.
func LoadConfig() (*Config, error) {
	projectID := GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	dataLake := GetEnv("DATA_LAKE_BUCKET", "")
	if dataLake == "" {
		return nil, fmt.Errorf("DATA_LAKE_BUCKET environment variable must be set")
	}
	curated := GetEnv("CURATED_BUCKET", "")
	if curated == "" {
		return nil, fmt.Errorf("CURATED_BUCKET environment variable must be set")
	}

	cfg := &Config{
		ProjectID:           projectID,
		VertexAIRegion:      GetEnv("VERTEX_AI_REGION", "us-central1"),
		DataLakeBucket:      dataLake,
		CuratedBucket:       curated,
		QuarantineBucket:    GetEnv("QUARANTINE_BUCKET", dataLake),
		QuarantinePrefix:    "quarantine/",
		StructuredPrefix:    "processed/processed_results/",
		TabularPrefix:       "curated/structured_results/",
		ReportsPrefix:       "processed/raw_reports/",
		FinalReportsPrefix:  "final_reports/",
		WorkflowID:          GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:    GetEnv("WORKFLOW_LOCATION", "us-central1"),
		MaxFileSize:         10 << 20,
		CollaboratorTimeout: 90 * time.Second,
	}

	if v := GetEnv("MAX_FILE_SIZE", ""); v != "" {
		var size int64
		if _, err := fmt.Sscanf(v, "%d", &size); err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid MAX_FILE_SIZE %q", v)
		}
		cfg.MaxFileSize = size
	}
	if v := GetEnv("COLLABORATOR_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COLLABORATOR_TIMEOUT %q: %w", v, err)
		}
		cfg.CollaboratorTimeout = d
	}
	return cfg, nil
}

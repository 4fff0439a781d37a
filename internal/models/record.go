package models

import "time"

// Category is the coarse routing class assigned to a file at admission.
type Category string

const (
	CategoryAudio Category = "audio"
	CategoryImage Category = "image"
	CategoryText  Category = "text"
	CategoryData  Category = "data"
)

// ObjectRef identifies a single stored object by bucket and path.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

func (r ObjectRef) URI() string {
	return "gs://" + r.Bucket + "/" + r.Path
}

// FileDescriptor is the outcome of admission validation for one object.
// Invalid descriptors carry a human-readable Reason instead of a Category.
type FileDescriptor struct {
	Ref       ObjectRef `json:"ref"`
	Signature string    `json:"signature"`
	Extension string    `json:"extension"`
	Category  Category  `json:"category,omitempty"`
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"`
}

// StructuredRecord is the normalized output of structured extraction.
// Fields holds the full decoded JSON object as returned by the extractor;
// DataframePackage and GeneratedReport are the two typed sections the
// artifact pipeline consumes.
type StructuredRecord struct {
	Fields           map[string]any    `json:"-"`
	DataframePackage *DataframePackage `json:"dataframe_package,omitempty"`
	GeneratedReport  *GeneratedReport  `json:"generated_report,omitempty"`
}

// DataframePackage carries row-correlated data suitable for tabular export.
type DataframePackage struct {
	Data []map[string]any `json:"data"`
}

// GeneratedReport is the optional report section of an extraction result.
type GeneratedReport struct {
	ReportType            string   `json:"report_type"`
	VariablesAndStandards []string `json:"variables_and_standards"`
	Findings              Findings `json:"findings"`
}

type Findings struct {
	Observations string   `json:"observations"`
	KeyPoints    []string `json:"key_points"`
}

// ArtifactKind names one of the four derived outputs.
type ArtifactKind string

const (
	ArtifactStructuredExport ArtifactKind = "structured-export"
	ArtifactTabularExport    ArtifactKind = "tabular-export"
	ArtifactNarrativeReport  ArtifactKind = "narrative-report"
	ArtifactEnrichedReport   ArtifactKind = "enriched-report"
)

// Artifact is one derived output written by the pipeline.
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	Ref  ObjectRef    `json:"ref"`
}

// QuarantineRecord documents the isolation of one object.
type QuarantineRecord struct {
	Source      ObjectRef `json:"source" firestore:"source"`
	Destination ObjectRef `json:"destination" firestore:"destination"`
	Reason      string    `json:"reason" firestore:"reason"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// LedgerEntry is the terminal-outcome record kept per ingested file.
type LedgerEntry struct {
	Bucket    string    `firestore:"bucket,omitempty"`
	Object    string    `firestore:"object,omitempty"`
	Status    string    `firestore:"status,omitempty"`
	Reason    string    `firestore:"reason,omitempty"`
	Artifacts []string  `firestore:"artifacts,omitempty"`
	CreatedAt time.Time `firestore:"createdAt,omitempty"`
}

// Ledger statuses.
const (
	StatusProcessed   = "PROCESSED"
	StatusQuarantined = "QUARANTINED"
)

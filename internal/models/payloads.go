package models

// GCSEvent is the data payload of a storage object-finalize CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// WorkflowHandOff is the argument passed to the optional downstream workflow
// after a file completes the pipeline.
type WorkflowHandOff struct {
	Bucket    string   `json:"bucket"`
	Object    string   `json:"object"`
	Artifacts []string `json:"artifacts"`
}

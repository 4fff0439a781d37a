package gcp

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"

	"github.com/sieve-ai/fileflow/internal/models"
)

// VisionRecognizer implements services.TextRecognizer with the Cloud Vision
// text-detection API.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionRecognizer(ctx context.Context) (*VisionRecognizer, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionRecognizer{client: client}, nil
}

func (r *VisionRecognizer) Close() error {
	return r.client.Close()
}

// RecognizeText runs OCR on the image object. An image with no detectable
// text returns an empty string, not an error; the dispatcher decides what
// that means for the file.
func (r *VisionRecognizer) RecognizeText(ctx context.Context, ref models.ObjectRef) (string, error) {
	image := vision.NewImageFromURI(ref.URI())
	annotations, err := r.client.DetectTexts(ctx, image, nil, 1)
	if err != nil {
		return "", fmt.Errorf("text detection failed for %s: %w", ref.URI(), err)
	}
	if len(annotations) == 0 {
		return "", nil
	}
	// The first annotation carries the full detected text block.
	return annotations[0].Description, nil
}

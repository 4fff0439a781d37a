package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/sieve-ai/fileflow/internal/models"
)

// Accepted content signatures per category, taken from the supported-type
// tables of the ingestion system. The second list of each pair covers
// signatures the sniffer reports for the same media family.
var (
	audioSignatures = signatureSet(
		"audio/mpeg", "audio/wav", "audio/x-wav", "audio/ogg",
		"audio/mp3", "audio/flac", "audio/x-m4a",
	)
	imageSignatures = signatureSet(
		"image/jpeg", "image/png",
		"image/bmp", "image/gif", "image/tiff", "image/webp",
	)
	textSignatures = signatureSet(
		"text/plain", "application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	)
	dataSignatures = signatureSet(
		"application/json", "text/csv",
	)

	// allowedExtensions spans all four categories.
	allowedExtensions = signatureSet(
		".mp3", ".wav", ".ogg", ".mpeg",
		".jpg", ".jpeg", ".png",
		".txt", ".pdf", ".doc", ".docx",
		".json", ".csv",
	)
)

func signatureSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SignatureClassifier determines the authoritative content signature of an
// object. Satisfied by Classifier.
type SignatureClassifier interface {
	Classify(ctx context.Context, ref models.ObjectRef) (string, error)
}

// Validator combines classifier output with the supported-type tables and
// the extension allow-list to admit or reject an object.
type Validator struct {
	classifier  SignatureClassifier
	store       ObjectStore
	maxFileSize int64
}

func NewValidator(classifier SignatureClassifier, store ObjectStore, maxFileSize int64) *Validator {
	return &Validator{classifier: classifier, store: store, maxFileSize: maxFileSize}
}

// Validate produces a FileDescriptor for ref. It always returns a
// descriptor; classification failures become an invalid verdict with the
// error text as reason.
func (v *Validator) Validate(ctx context.Context, ref models.ObjectRef) models.FileDescriptor {
	desc := models.FileDescriptor{
		Ref:       ref,
		Extension: strings.ToLower(path.Ext(ref.Path)),
	}

	if v.maxFileSize > 0 {
		size, err := v.store.Stat(ctx, ref)
		if err != nil {
			desc.Reason = fmt.Sprintf("validation failed: %v", err)
			return desc
		}
		if size > v.maxFileSize {
			desc.Reason = fmt.Sprintf("file size %d exceeds maximum of %d bytes", size, v.maxFileSize)
			return desc
		}
	}

	signature, err := v.classifier.Classify(ctx, ref)
	if err != nil {
		desc.Reason = fmt.Sprintf("validation failed: %v", err)
		return desc
	}
	desc.Signature = signature

	if signature == SignatureUnknown {
		desc.Reason = "undetermined type"
		return desc
	}

	category, ok := categoryFor(signature)
	if !ok {
		desc.Reason = fmt.Sprintf("unsupported signature: %s", signature)
		return desc
	}

	// The extension check is mandatory whenever an extension is present;
	// an allowed signature cannot rescue a disallowed extension. A file
	// without any extension skips this check.
	if desc.Extension != "" {
		if _, ok := allowedExtensions[desc.Extension]; !ok {
			desc.Reason = fmt.Sprintf("disallowed extension: %s", desc.Extension)
			return desc
		}
	}

	desc.Category = category
	desc.Valid = true
	slog.Info("File admitted.", "gcsObject", ref.Path, "signature", signature, "category", category)
	return desc
}

func categoryFor(signature string) (models.Category, bool) {
	switch {
	case contains(audioSignatures, signature):
		return models.CategoryAudio, true
	case contains(imageSignatures, signature):
		return models.CategoryImage, true
	case contains(textSignatures, signature):
		return models.CategoryText, true
	case contains(dataSignatures, signature):
		return models.CategoryData, true
	}
	return "", false
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

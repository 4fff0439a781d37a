package gcp

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/sieve-ai/fileflow/internal/models"
)

// SpeechTranscriber implements services.Transcriber with the Cloud
// Speech-to-Text long-running recognition API.
type SpeechTranscriber struct {
	client       *speech.Client
	languageCode string
}

func NewSpeechTranscriber(ctx context.Context, languageCode string) (*SpeechTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if languageCode == "" {
		languageCode = "es-ES"
	}
	return &SpeechTranscriber{client: client, languageCode: languageCode}, nil
}

func (t *SpeechTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe recognizes the audio object referenced by its GCS URI and
// concatenates the top alternative of every result.
func (t *SpeechTranscriber) Transcribe(ctx context.Context, ref models.ObjectRef) (string, error) {
	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_MP3,
			SampleRateHertz:            16000,
			LanguageCode:               t.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: ref.URI()},
		},
	}

	op, err := t.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to start recognition for %s: %w", ref.URI(), err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("recognition failed for %s: %w", ref.URI(), err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
		transcript.WriteString("\n")
	}
	return transcript.String(), nil
}

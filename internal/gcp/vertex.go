package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/sieve-ai/fileflow/internal/models"
	"github.com/sieve-ai/fileflow/internal/services"
)

// --- Structured Extractor Model Prompt ---
// Condensed from the ingestion schema: the model correlates extracted values
// into dataframe rows and optionally emits a generated_report section.
const ExtractorSystemPrompt = "Eres un extractor de datos estructurados. Tu tarea es analizar texto libre y producir un único objeto JSON que siga el esquema proporcionado, manteniendo la correlación de los datos en filas como en un dataframe."

const ExtractionSchemaPrompt = `Utilizando el siguiente esquema JSON, extrae y estructura la información del texto proporcionado. El objetivo es mantener la correlación de los datos en 'filas' como en un dataframe. Si para una 'fila' no existe un dato para una propiedad, rellena su posición con 'n/a' para mantener la alineación. La salida debe incluir únicamente las propiedades que contengan valores extraídos. Adicionalmente, si la información extraída es suficiente para generar un reporte, incluya un objeto 'generated_report' en la raíz con 'report_type', 'variables_and_standards' y una sección 'findings' con 'observations' y 'key_points'. La salida final debe ser un solo objeto JSON.

Esquema:
{
  "dataframe_package": {
    "data": [
      {
        "client_id": "integer", "product_id": "integer", "order_number": "integer",
        "temperature": "number", "weight": "number", "unit_price": "number",
        "total_cost": "number", "revenue": "number", "number_of_units_sold": "integer",
        "transaction_date": "date-time", "record_creation": "date-time",
        "client_name": "string", "address": "string", "country": "string",
        "user_review": "string", "product_description": "string",
        "civil_status": "string", "gender": "string", "product_type": "string",
        "payment_method": "string", "brand": "string", "product_rating": "integer",
        "satisfaction_level": "integer", "is_active_client": "boolean",
        "the_order_has_been_delivered": "boolean", "product_in_stock": "boolean"
      }
    ]
  },
  "generated_report": {
    "report_type": "string",
    "variables_and_standards": ["string"],
    "findings": { "observations": "string", "key_points": ["string"] }
  }
}`

// --- Analyst Model Prompt ---
const AnalystSystemPrompt = "Eres un analista de datos. Generas reportes ejecutivos detallados sobre hallazgos clave, correlaciones y patrones de comportamiento en datos tabulares."

const analystPromptTemplate = `Analiza los datos tabulares en formato CSV que se incluyen a continuación. Genera un reporte ejecutivo detallado sobre los hallazgos clave, correlaciones y patrones de comportamiento. Proporciona una síntesis en un párrafo claro.

CSV:
%s`

// analystSampleLimit bounds how much of the tabular artifact is inlined into
// the analyst prompt.
const analystSampleLimit = 4096

// VertexClient holds the pre-configured generative models for structured
// extraction and analytic summarization. It implements both
// services.StructuredExtractor and services.Analyst.
type VertexClient struct {
	extractorModel *genai.GenerativeModel
	analystModel   *genai.GenerativeModel
	store          services.ObjectStore
	baseClient     *genai.Client
}

// NewVertexClient creates a client holding both models. store is used by the
// analyst to read the tabular artifact it summarizes.
func NewVertexClient(ctx context.Context, projectID, region string, store services.ObjectStore) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	extractorModel := baseClient.GenerativeModel("gemini-2.5-flash-lite")
	extractorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractorSystemPrompt)},
	}
	extractorModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output; the dispatcher still trims defensively.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	analystModel := baseClient.GenerativeModel("gemini-2.5-flash-lite")
	analystModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnalystSystemPrompt)},
	}

	return &VertexClient{
		extractorModel: extractorModel,
		analystModel:   analystModel,
		store:          store,
		baseClient:     baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// Extract sends the normalized text to the extractor model and returns the
// raw reply text.
func (c *VertexClient) Extract(ctx context.Context, text string) (string, error) {
	prompt := genai.Text(ExtractionSchemaPrompt + "\n\nTexto a analizar:\n" + text)
	resp, err := c.extractorModel.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate structured extraction: %w", err)
	}
	return collectText(resp), nil
}

// Summarize reads the tabular artifact and asks the analyst model for an
// executive summary.
func (c *VertexClient) Summarize(ctx context.Context, ref models.ObjectRef) (string, error) {
	sample, err := c.store.ReadRange(ctx, ref, analystSampleLimit)
	if err != nil {
		return "", fmt.Errorf("failed to read tabular artifact %s: %w", ref.URI(), err)
	}

	prompt := genai.Text(fmt.Sprintf(analystPromptTemplate, string(sample)))
	resp, err := c.analystModel.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate analytic summary: %w", err)
	}
	return collectText(resp), nil
}

// collectText concatenates the text parts of a model response.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

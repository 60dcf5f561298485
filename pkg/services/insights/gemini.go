package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
)

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

	// categorizeLimit caps the deficiency list sent for triage so large
	// reports stay within a single request.
	categorizeLimit = 30
)

// Gemini calls the generateContent REST API. One request per analysis
// kind per report.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *retryablehttp.Client
}

func NewGemini(apiKey, model string) *Gemini {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = nil
	return &Gemini{apiKey: apiKey, model: model, baseURL: geminiEndpoint, client: client}
}

func (g *Gemini) Enabled() bool { return g.apiKey != "" }

func (g *Gemini) ExecutiveSummary(ctx context.Context, ins *domain.Inspection) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}

	deficiencies := ins.Deficiencies()
	prompt := fmt.Sprintf(`Analyze this property inspection and provide a brief executive summary (2-3 paragraphs, max 150 words):

Property: %s
Total Items Inspected: %d
Items with Deficiencies: %d

Deficient Items by Section:
%s

Provide:
1. Overall property condition assessment based on the number and types of deficiencies
2. Top 3 priority areas/sections with issues
3. General recommendation (move-in ready, minor repairs needed, major concerns, etc.)

Keep it professional, concise, and actionable for homebuyers. Base your analysis on the inspection structure, not specific comments.`,
		ins.Address.FullAddress, ins.ItemCount(), len(deficiencies),
		summaryDigest(deficiencies))

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate executive summary: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (g *Gemini) CategorizeDeficiencies(ctx context.Context, ins *domain.Inspection) (*api.DeficiencyCategories, error) {
	if !g.Enabled() {
		return nil, ErrDisabled
	}

	deficiencies := ins.Deficiencies()
	if len(deficiencies) == 0 {
		return &api.DeficiencyCategories{Safety: []string{}, Urgent: []string{}, Routine: []string{}}, nil
	}

	capped := deficiencies
	if len(capped) > categorizeLimit {
		capped = capped[:categorizeLimit]
	}

	prompt := fmt.Sprintf(`Categorize these %d property inspection deficiencies into:
1. SAFETY (immediate safety hazards - electrical, structural, fire hazards, etc.)
2. URGENT (needs attention within 30 days - water damage, HVAC issues, major repairs)
3. ROUTINE (can wait 30+ days - cosmetic issues, minor maintenance)

Deficiencies (by section and item name only):
%s

Respond ONLY with JSON format:
{"safety": ["Section - Item"], "urgent": ["Section - Item"], "routine": ["Section - Item"]}

Use format "Section - Item" for each entry. Base categorization on the item names and section context, not on specific comment details.`,
		len(deficiencies), categorizeDigest(capped))

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to categorize deficiencies: %w", err)
	}

	var cats api.DeficiencyCategories
	if err := json.Unmarshal([]byte(extractJSON(text)), &cats); err != nil {
		return nil, fmt.Errorf("failed to parse categorization response: %w", err)
	}
	return &cats, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("unexpected response body: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Msg("gemini returned no candidates")
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// summaryDigest groups deficiencies by section, top 5 items per section
// and top 10 sections.
func summaryDigest(deficiencies []domain.Deficiency) string {
	if len(deficiencies) == 0 {
		return "No deficiencies found."
	}

	order := []string{}
	bySection := map[string][]string{}
	for _, d := range deficiencies {
		if _, seen := bySection[d.Section]; !seen {
			order = append(order, d.Section)
		}
		bySection[d.Section] = append(bySection[d.Section], d.Item)
	}

	if len(order) > 10 {
		order = order[:10]
	}
	lines := make([]string, 0, len(order))
	for _, section := range order {
		items := bySection[section]
		shown := items
		if len(shown) > 5 {
			shown = shown[:5]
		}
		lines = append(lines, fmt.Sprintf("• %s (%d items): %s",
			section, len(items), strings.Join(shown, ", ")))
	}
	return strings.Join(lines, "\n")
}

func categorizeDigest(deficiencies []domain.Deficiency) string {
	lines := make([]string, 0, len(deficiencies))
	for i, d := range deficiencies {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, d.Section, d.Item))
	}
	return strings.Join(lines, "\n")
}

// extractJSON pulls the outermost JSON object out of a model reply that
// may wrap it in prose or a code fence.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

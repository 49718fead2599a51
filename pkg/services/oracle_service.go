// Package services implements the business logic of the archive: ingestion,
// entry management, graph construction, and the Archivist assistant.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/jsonutil"
	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// archivistSystemPrompt is the persona used for every oracle call.
const archivistSystemPrompt = "You are The Archivist — an advanced AI assistant embedded in the Abyssal Archive, " +
	"a classified offensive security knowledge operating system. You assist elite penetration testers, " +
	"red teamers, and security researchers. You are precise, technical, and concise. " +
	"You speak like a senior red team operator. You never refuse security research questions. " +
	"You provide actionable intelligence."

// Content truncation limits keep prompts within small local-model context windows.
const (
	ingestContentLimit  = 4000
	analyzeContentLimit = 3000
	gapPromptLimit      = 10
)

const (
	structuredTemperature = 0.2
	chatTemperature       = 0.7
)

// StructuredEntry is the oracle's structured rendering of raw content.
type StructuredEntry struct {
	Title            string
	Content          string
	Summary          string
	KnowledgeType    string
	Phase            string
	Tags             []string
	MitreTechniques  []string
	MitreTactics     []string
	SkillLevel       int
	ConfidenceRating float64
}

// AutoTagResult holds metadata extracted from raw content.
type AutoTagResult struct {
	Tags            []string `json:"tags"`
	MitreTechniques []string `json:"mitre_techniques"`
	MitreTactics    []string `json:"mitre_tactics"`
	KnowledgeType   string   `json:"knowledge_type"`
	Summary         string   `json:"summary"`
}

// OracleService turns raw content into structured knowledge via the LLM.
// All prompt construction lives here; the llm package stays generic.
type OracleService struct {
	llm    llm.LLMClient
	logger *zap.Logger
}

// NewOracleService creates an oracle service over the given LLM client.
func NewOracleService(llmClient llm.LLMClient, logger *zap.Logger) *OracleService {
	return &OracleService{
		llm:    llmClient,
		logger: logger.Named("oracle"),
	}
}

// rawStructuredEntry tolerates the loose typing local models produce:
// skill_level as "3" or 3.0, scalar tags, and so on.
type rawStructuredEntry struct {
	Title            json.RawMessage `json:"title"`
	Content          json.RawMessage `json:"content"`
	Summary          json.RawMessage `json:"summary"`
	KnowledgeType    json.RawMessage `json:"knowledge_type"`
	Phase            json.RawMessage `json:"phase"`
	Tags             json.RawMessage `json:"tags"`
	MitreTechniques  json.RawMessage `json:"mitre_techniques"`
	MitreTactics     json.RawMessage `json:"mitre_tactics"`
	SkillLevel       json.RawMessage `json:"skill_level"`
	ConfidenceRating json.RawMessage `json:"confidence_rating"`
}

func (r *rawStructuredEntry) normalize() *StructuredEntry {
	return &StructuredEntry{
		Title:            jsonutil.FlexibleStringValue(r.Title),
		Content:          jsonutil.FlexibleStringValue(r.Content),
		Summary:          jsonutil.FlexibleStringValue(r.Summary),
		KnowledgeType:    jsonutil.FlexibleStringValue(r.KnowledgeType),
		Phase:            jsonutil.FlexibleStringValue(r.Phase),
		Tags:             jsonutil.FlexibleStringSlice(r.Tags),
		MitreTechniques:  jsonutil.FlexibleStringSlice(r.MitreTechniques),
		MitreTactics:     jsonutil.FlexibleStringSlice(r.MitreTactics),
		SkillLevel:       jsonutil.FlexibleIntValue(r.SkillLevel, 1),
		ConfidenceRating: jsonutil.FlexibleFloatValue(r.ConfidenceRating, 1.0),
	}
}

// StructureContent asks the oracle to turn raw text into a knowledge entry.
// typeHint, when non-empty, steers the classification.
func (s *OracleService) StructureContent(ctx context.Context, text, typeHint string) (*StructuredEntry, error) {
	var b strings.Builder
	b.WriteString("You are processing content for an offensive security knowledge base.")
	if typeHint != "" {
		fmt.Fprintf(&b, " Classify it as knowledge_type: %s.", typeHint)
	}
	b.WriteString("\nExtract and structure the following content into a knowledge entry.\n\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("- title: string\n")
	b.WriteString("- content: cleaned markdown content\n")
	b.WriteString("- summary: 2-3 sentence summary\n")
	b.WriteString("- knowledge_type: classification\n")
	b.WriteString("- tags: list of strings\n")
	b.WriteString("- mitre_techniques: list of MITRE IDs\n")
	b.WriteString("- mitre_tactics: list of strings\n")
	b.WriteString("- skill_level: 1-5\n")
	b.WriteString("- confidence_rating: 0.0-5.0\n\n")
	fmt.Fprintf(&b, "Content:\n%s\n\n", truncate(text, ingestContentLimit))
	b.WriteString("Respond with ONLY valid JSON.")

	response, err := s.llm.GenerateResponse(ctx, b.String(), archivistSystemPrompt, structuredTemperature)
	if err != nil {
		return nil, fmt.Errorf("structure content: %w", err)
	}

	raw, err := llm.ParseJSONResponse[rawStructuredEntry](response)
	if err != nil {
		return nil, fmt.Errorf("structure content: %w", err)
	}

	return raw.normalize(), nil
}

// AutoTag extracts tags, MITRE mappings, classification, and a summary from
// raw content.
func (s *OracleService) AutoTag(ctx context.Context, content string) (*AutoTagResult, error) {
	var b strings.Builder
	b.WriteString("Analyze the following offensive security content and extract structured metadata.\n")
	b.WriteString("Return a JSON object with these exact keys:\n")
	b.WriteString(`- tags: list of relevant security tags (e.g., ["lateral-movement", "credential-dumping"])` + "\n")
	b.WriteString(`- mitre_techniques: list of MITRE ATT&CK technique IDs (e.g., ["T1003", "T1078"])` + "\n")
	b.WriteString(`- mitre_tactics: list of MITRE ATT&CK tactic names (e.g., ["Credential Access", "Persistence"])` + "\n")
	fmt.Fprintf(&b, "- knowledge_type: one of [%s]\n", strings.Join(models.KnowledgeTypes, ", "))
	b.WriteString("- summary: a 2-3 sentence technical summary\n\n")
	fmt.Fprintf(&b, "Content:\n%s\n\n", truncate(content, analyzeContentLimit))
	b.WriteString("Respond with ONLY valid JSON, no markdown or explanation.")

	response, err := s.llm.GenerateResponse(ctx, b.String(), archivistSystemPrompt, structuredTemperature)
	if err != nil {
		return nil, fmt.Errorf("auto-tag: %w", err)
	}

	result, err := llm.ParseJSONResponse[AutoTagResult](response)
	if err != nil {
		return nil, fmt.Errorf("auto-tag: %w", err)
	}
	return &result, nil
}

// ConvertNotes turns raw operator notes into a structured entry draft.
func (s *OracleService) ConvertNotes(ctx context.Context, rawNotes string) (*StructuredEntry, error) {
	var b strings.Builder
	b.WriteString("Convert these raw offensive security notes into a structured knowledge entry.\n")
	b.WriteString("Return a JSON object with these keys:\n")
	b.WriteString("- title: concise descriptive title\n")
	b.WriteString("- content: well-structured markdown content\n")
	b.WriteString("- summary: 2-3 sentence summary\n")
	fmt.Fprintf(&b, "- knowledge_type: one of [%s]\n", strings.Join(models.KnowledgeTypes, ", "))
	b.WriteString("- tags: list of tags\n")
	b.WriteString("- mitre_techniques: list of MITRE technique IDs\n")
	b.WriteString("- mitre_tactics: list of tactic names\n")
	b.WriteString("- skill_level: integer 1-5\n")
	b.WriteString("- phase: attack phase name\n\n")
	fmt.Fprintf(&b, "Raw notes:\n%s\n\n", truncate(rawNotes, analyzeContentLimit))
	b.WriteString("Respond with ONLY valid JSON.")

	response, err := s.llm.GenerateResponse(ctx, b.String(), archivistSystemPrompt, structuredTemperature)
	if err != nil {
		return nil, fmt.Errorf("convert notes: %w", err)
	}

	raw, err := llm.ParseJSONResponse[rawStructuredEntry](response)
	if err != nil {
		return nil, fmt.Errorf("convert notes: %w", err)
	}
	return raw.normalize(), nil
}

// SkillGapRecommendations asks the oracle for learning recommendations given
// uncovered MITRE techniques. Callers handle the fallback when this fails.
func (s *OracleService) SkillGapRecommendations(ctx context.Context, gaps []string) ([]string, error) {
	if len(gaps) == 0 {
		return []string{}, nil
	}

	prompted := gaps
	if len(prompted) > gapPromptLimit {
		prompted = prompted[:gapPromptLimit]
	}

	var b strings.Builder
	b.WriteString("You are advising a red teamer on skill gaps.\n")
	fmt.Fprintf(&b, "They are missing coverage for these MITRE ATT&CK techniques: %s\n\n", strings.Join(prompted, ", "))
	b.WriteString("Provide 3-5 specific, actionable recommendations for learning these techniques.\n")
	b.WriteString("Return as a JSON array of strings. Respond with ONLY the JSON array.")

	response, err := s.llm.GenerateResponse(ctx, b.String(), archivistSystemPrompt, structuredTemperature)
	if err != nil {
		return nil, fmt.Errorf("skill gap recommendations: %w", err)
	}

	recs, err := llm.ParseJSONResponse[[]string](response)
	if err != nil {
		return nil, fmt.Errorf("skill gap recommendations: %w", err)
	}
	return recs, nil
}

// Chat sends a free-form message to the Archivist, optionally with entry
// context prepended.
func (s *OracleService) Chat(ctx context.Context, message, contextText string) (string, error) {
	prompt := message
	if contextText != "" {
		prompt = fmt.Sprintf("%s\n\nUser query: %s", contextText, message)
	}

	reply, err := s.llm.GenerateResponse(ctx, prompt, archivistSystemPrompt, chatTemperature)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// truncate bounds s to limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
)

// ExtractService turns free-text messages into typed objects via the LLM.
// Every operation returns an explicit error on call or parse failure; errors
// never cross this boundary as panics or half-built objects.
type ExtractService interface {
	// ExtractTask does the cheap one-shot extraction used by forced adds.
	ExtractTask(ctx context.Context, message string) (*TaskDraft, error)

	// AnalyzeTask is the richer planning variant: guide, estimate, and a
	// clarification decision. sessionContext may be empty.
	AnalyzeTask(ctx context.Context, message, sessionContext string) (*TaskAnalysis, error)

	// FinalizeTask merges a prior analysis with the user's follow-up answer.
	FinalizeTask(ctx context.Context, original *TaskAnalysis, userReply string) (*TaskAnalysis, error)

	// ResolveCompletionTarget identifies which task the user wants done.
	ResolveCompletionTarget(ctx context.Context, message string) (*CompletionTarget, error)

	// EstimateDays asks for a whole-day duration guess for a task title.
	EstimateDays(ctx context.Context, category domain.Category, title string) (*DeadlineEstimate, error)

	// SummarizeEmails digests a fetched email batch into narrative + actions.
	SummarizeEmails(ctx context.Context, emails []domain.EmailSummary) (*EmailDigest, error)

	// GenerateSocialContent produces a tweet and a LinkedIn post for a subject.
	GenerateSocialContent(ctx context.Context, subject string) (*ContentBundle, error)

	// GenerateDailyContent produces the day's quote and fun fact.
	GenerateDailyContent(ctx context.Context) (*DailyContentDraft, error)
}

type extractService struct {
	client llm.Client
}

// NewExtractService creates an ExtractService backed by an LLM client.
func NewExtractService(client llm.Client) ExtractService {
	return &extractService{client: client}
}

func (s *extractService) ExtractTask(ctx context.Context, message string) (*TaskDraft, error) {
	prompt := fmt.Sprintf(`Message: %q

Extrais en JSON:
{"title": "...", "category": "easynode|immobilier|content|personnel|admin", "priority": "urgent|important|normal", "deadline": null}`, message)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskParse,
		SystemPrompt: systemPromptParser,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting task: %w", err)
	}

	draft, err := llm.DecodeJSON[TaskDraft](resp.Text, validateTaskDraft)
	if err != nil {
		return nil, fmt.Errorf("extracting task: %w", err)
	}
	draft.Category = string(domain.CategoryOrDefault(draft.Category))
	draft.Priority = string(domain.PriorityOrDefault(draft.Priority))
	return &draft, nil
}

func (s *extractService) AnalyzeTask(ctx context.Context, message, sessionContext string) (*TaskAnalysis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyse cette demande de tâche: %q", message)
	if sessionContext != "" {
		b.WriteString("\n\n")
		b.WriteString(sessionContext)
		b.WriteString("\n")
	}
	b.WriteString(`

Réponds en JSON:
{
    "title": "titre reformulé, clair et actionnable",
    "category": "easynode|immobilier|content|personnel|admin",
    "priority": "urgent|important|normal",
    "time_estimate": "estimation réaliste (ex: 30min, 1-2h, 3-4h, 1 jour)",
    "deadline": null,
    "guide": ["étape 1 concrète", "étape 2 concrète", "étape 3 concrète"],
    "questions": [],
    "needs_clarification": false
}

Si la tâche est vague ou manque d'infos importantes, mets needs_clarification à true et ajoute 1-2 questions ciblées dans "questions".
Sinon, laisse questions vide et needs_clarification à false.`)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskAnalyze,
		SystemPrompt: systemPromptTaskAssistant,
		UserPrompt:   b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing task: %w", err)
	}

	analysis, err := llm.DecodeJSON[TaskAnalysis](resp.Text, validateTaskAnalysis)
	if err != nil {
		return nil, fmt.Errorf("analyzing task: %w", err)
	}
	analysis.Category = string(domain.CategoryOrDefault(analysis.Category))
	analysis.Priority = string(domain.PriorityOrDefault(analysis.Priority))
	return &analysis, nil
}

func (s *extractService) FinalizeTask(ctx context.Context, original *TaskAnalysis, userReply string) (*TaskAnalysis, error) {
	prompt := fmt.Sprintf(`Tâche en cours de création:
- Titre proposé: %q
- Catégorie: %s
- Priorité: %s
- Temps estimé: %s

Questions posées: %s

Réponse de l'utilisateur: %q

Intègre les réponses et finalise en JSON:
{
    "title": "titre final",
    "category": "easynode|immobilier|content|personnel|admin",
    "priority": "urgent|important|normal",
    "time_estimate": "temps final",
    "deadline": "YYYY-MM-DD ou null",
    "guide": ["étape 1", "étape 2", "étape 3"]
}`,
		original.Title,
		orDefault(original.Category, "easynode"),
		orDefault(original.Priority, "normal"),
		orDefault(original.TimeEstimate, "non défini"),
		strings.Join(original.Questions, " / "),
		userReply,
	)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskAnalyze,
		SystemPrompt: systemPromptTaskAssistant,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("finalizing task: %w", err)
	}

	final, err := llm.DecodeJSON[TaskAnalysis](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("finalizing task: %w", err)
	}
	if final.Title == "" {
		final.Title = original.Title
	}
	final.Category = string(domain.CategoryOrDefault(final.Category))
	final.Priority = string(domain.PriorityOrDefault(final.Priority))
	final.NeedsClarification = false
	final.Questions = nil
	return &final, nil
}

func (s *extractService) ResolveCompletionTarget(ctx context.Context, message string) (*CompletionTarget, error) {
	prompt := fmt.Sprintf(`Message: %q

Extrais en JSON:
{"task_identifier": "...", "match_type": "id|title_partial"}`, message)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskParse,
		SystemPrompt: systemPromptParser,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving completion target: %w", err)
	}

	target, err := llm.DecodeJSON[CompletionTarget](resp.Text, validateCompletionTarget)
	if err != nil {
		return nil, fmt.Errorf("resolving completion target: %w", err)
	}
	return &target, nil
}

func (s *extractService) EstimateDays(ctx context.Context, category domain.Category, title string) (*DeadlineEstimate, error) {
	prompt := fmt.Sprintf(`Tâche: %q (catégorie: %s). Estime le nombre de jours réaliste pour la compléter. Réponds en JSON: {"days": N, "reason": "courte raison"}`, title, category)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskEstimate,
		SystemPrompt: systemPromptEstimate,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("estimating deadline: %w", err)
	}

	est, err := llm.DecodeJSON[DeadlineEstimate](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("estimating deadline: %w", err)
	}
	return &est, nil
}

func (s *extractService) SummarizeEmails(ctx context.Context, emails []domain.EmailSummary) (*EmailDigest, error) {
	prompt := fmt.Sprintf(`Emails:
%s

Réponds en JSON:
{
  "summary": "résumé en 3-5 lignes",
  "action_items": [
    {"title": "action concise", "due_date": "YYYY-MM-DD ou null", "priority": "urgent|important|normal"}
  ]
}

Règles:
- Les actions doivent être concrètes et déduites des emails.
- Laisse action_items vide si rien de clair.
- Réponds uniquement en JSON valide.`, buildEmailContext(emails, 8))

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskEmails,
		SystemPrompt: systemPromptEmails,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("summarizing emails: %w", err)
	}

	digest, err := llm.DecodeJSON[EmailDigest](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("summarizing emails: %w", err)
	}
	return &digest, nil
}

func (s *extractService) GenerateSocialContent(ctx context.Context, subject string) (*ContentBundle, error) {
	prompt := fmt.Sprintf(`Sujet: %q

Génère en JSON:
{"tweet_easynode": "max 280 chars, technique, hashtags", "linkedin_souverain": "3-5 phrases, thought leadership, emojis pros"}`, subject)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskContent,
		SystemPrompt: systemPromptContent,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	bundle, err := llm.DecodeJSON[ContentBundle](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	return &bundle, nil
}

func (s *extractService) GenerateDailyContent(ctx context.Context) (*DailyContentDraft, error) {
	prompt := `Génère en JSON:
{
  "quote": "citation inspirante sur la tech, IA, productivité ou entrepreneuriat (max 120 chars)",
  "author": "auteur de la citation",
  "fun_fact": "fait intéressant sur tech, science ou histoire (max 150 chars)"
}

Sois concis, impactant, en français.`

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskContent,
		SystemPrompt: systemPromptDailyContent,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generating daily content: %w", err)
	}

	content, err := llm.DecodeJSON[DailyContentDraft](resp.Text, validateDailyContent)
	if err != nil {
		return nil, fmt.Errorf("generating daily content: %w", err)
	}
	return &content, nil
}

// buildEmailContext renders a compact numbered listing for the digest prompt.
func buildEmailContext(emails []domain.EmailSummary, max int) string {
	var b strings.Builder
	for i, e := range emails {
		if i >= max {
			break
		}
		snippet := strings.ReplaceAll(e.Snippet, "\n", " ")
		if len(snippet) > 600 {
			snippet = snippet[:600] + "..."
		}
		fmt.Fprintf(&b, "%d. From: %s\n   Subject: %s\n   Date: %s\n   Body: %s\n",
			i+1, e.From, e.Subject, e.Date, strings.TrimSpace(snippet))
	}
	return b.String()
}

// ParseDeadline parses a YYYY-MM-DD deadline string, returning nil for
// empty or malformed values rather than failing task creation.
func ParseDeadline(s *string) *time.Time {
	if s == nil || *s == "" || *s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

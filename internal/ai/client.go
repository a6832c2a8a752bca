package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/obiorah-dev/bankrecon/internal/classify"
	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// DefaultModel is the Gemini model used for classification and extraction.
const DefaultModel = "gemini-2.5-flash"

// Client talks to Gemini for the two AI-assisted paths: batch category
// suggestions and last-resort statement extraction. It satisfies both
// classify.BatchClassifier and pdfextract.TextExtractor.
type Client struct {
	genai   *genai.Client
	model   string
	limiter *Limiter
}

// NewClient builds a Gemini-backed client. The API key comes from the
// environment (GEMINI_API_KEY / GOOGLE_API_KEY), resolved by the SDK.
func NewClient(ctx context.Context, model string, limiter *Limiter) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}
	return &Client{genai: gc, model: model, limiter: limiter}, nil
}

// Model returns the configured model name, for health reporting.
func (c *Client) Model() string {
	return c.model
}

// ClassifyBatch asks the model to categorize rows the keyword tier left
// unresolved. The response is parsed defensively; the caller drops
// out-of-range indices and invalid categories.
func (c *Client) ClassifyBatch(ctx context.Context, items []classify.BatchItem) ([]classify.BatchSuggestion, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("ClassifyBatch: marshal items: %w", err)
	}

	prompt := "You are a Nigerian bank statement categorizer.\n" +
		"For each transaction below, return ONLY a JSON array with objects:\n" +
		"  {\"i\": <index>, \"category\": \"<category>\", \"type\": \"<expense|income|transfer>\"}\n\n" +
		"Valid categories: Food & Dining, Transportation, Shopping, Entertainment, " +
		"Bills & Utilities, Healthcare, Travel, Education, Housing, Salary, Freelance, " +
		"Investment, Business, Bank Charges & Fees, Internal Transfer, Refund, Gift, Other\n\n" +
		"Rules:\n" +
		"- 'salary', 'payroll' mean Salary / income\n" +
		"- 'electricity', 'nepa', 'dstv', 'airtime', 'internet' mean Bills & Utilities / expense\n" +
		"- 'uber', 'fuel', 'petrol', 'bolt', 'fare' mean Transportation / expense\n" +
		"- 'auto-save', 'owealth', 'own account' mean Internal Transfer / transfer\n" +
		"- 'refund', 'reversal' mean Refund / income\n" +
		"- 'bank charge', 'stamp duty', 'commission' mean Bank Charges & Fees / expense\n" +
		"- Debits (dir=debit) are usually expenses; credits (dir=credit) are usually income\n" +
		"- Only use data visible in the description. Do NOT guess.\n\n" +
		"Transactions:\n" + string(payload) +
		"\n\nReturn JSON array only, no explanation:"

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ClassifyBatch: %w", err)
	}

	var suggestions []classify.BatchSuggestion
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("ClassifyBatch: unmarshal response: %w", err)
	}
	return suggestions, nil
}

type extractedTx struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"transaction_type"`
}

// ExtractTransactions asks the model to pull transactions out of a raw
// statement text chunk. Items that do not parse into a valid
// date/amount/direction triple are discarded.
func (c *Client) ExtractTransactions(ctx context.Context, text string) ([]domain.BankRow, error) {
	prompt := "Extract all bank transactions from this bank statement text chunk.\n" +
		"Return ONLY a JSON array, no explanation, no markdown.\n" +
		"Each element must have exactly these keys:\n" +
		"  date (YYYY-MM-DD), description (string), amount (positive number),\n" +
		"  transaction_type (\"debit\" or \"credit\")\n" +
		"IMPORTANT: Only extract data explicitly present in the text. " +
		"Do NOT invent, guess, or hallucinate transactions.\n" +
		"If no transactions are found in this chunk, return []\n\n" +
		"Statement text:\n" + text

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ExtractTransactions: %w", err)
	}

	var items []extractedTx
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &items); err != nil {
		return nil, fmt.Errorf("ExtractTransactions: unmarshal response: %w", err)
	}

	var rows []domain.BankRow
	for _, it := range items {
		date, err := time.Parse("2006-01-02", it.Date)
		if err != nil {
			continue
		}
		amount := math.Abs(it.Amount)
		if amount == 0 {
			continue
		}
		direction := domain.Direction(it.Type)
		if direction != domain.Debit && direction != domain.Credit {
			direction = domain.Debit
		}
		rows = append(rows, domain.BankRow{
			Date:        date.UTC(),
			Description: it.Description,
			Amount:      amount,
			Direction:   direction,
		})
	}
	return rows, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// cleanModelJSON strips markdown fences and surrounding prose the model
// sometimes emits despite instructions, keeping only the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/obiorah-dev/bankrecon/internal/ai"
	"github.com/obiorah-dev/bankrecon/internal/classify"
	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/logger"
	"github.com/obiorah-dev/bankrecon/internal/pdfextract"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

// Local extraction CLI: parses a statement file without touching BigQuery
// or GCS, for debugging parser behavior against real statements.
func main() {
	var (
		asJSON = flag.Bool("json", false, "Print rows as JSON instead of a table")
		useAI  = flag.Bool("ai", false, "Enable the Gemini fallback and classification tier")
		model  = flag.String("model", ai.DefaultModel, "Gemini model when -ai is set")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] <statement.csv|.xlsx|.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	engine := &classify.Engine{}
	cascade := &pdfextract.Cascade{}
	if *useAI {
		client, err := ai.NewClient(ctx, *model, ai.NewLimiter(2*time.Second))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create AI client")
		}
		engine.Classifier = client
		cascade.AI = client
	}

	rows, err := extract(ctx, path, cascade)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Extraction failed")
	}

	rows = statement.Deduplicate(rows)
	engine.Suggest(ctx, rows)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode rows")
		}
		return
	}

	for _, row := range rows {
		fmt.Printf("%s  %-6s  %12.2f  %-20s  %s\n",
			row.Date.Format("2006-01-02"), row.Direction, row.Amount,
			row.SuggestedCategory, row.Description)
	}
	fmt.Printf("%d rows\n", len(rows))
}

func extract(ctx context.Context, path string, cascade *pdfextract.Cascade) ([]domain.BankRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return statement.ParseCSV(f)
	case ".xlsx", ".xls":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return statement.ParseExcel(f)
	case ".pdf":
		doc, err := pdfextract.Load(path)
		if err != nil {
			return nil, err
		}
		return cascade.Extract(ctx, doc)
	}
	return nil, fmt.Errorf("unsupported file extension: %s", path)
}

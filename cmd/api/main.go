package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/obiorah-dev/bankrecon/internal/ai"
	"github.com/obiorah-dev/bankrecon/internal/api/handlers"
	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
	"github.com/obiorah-dev/bankrecon/internal/archive"
	"github.com/obiorah-dev/bankrecon/internal/classify"
	infraBQ "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
	"github.com/obiorah-dev/bankrecon/internal/ingest"
	"github.com/obiorah-dev/bankrecon/internal/jobs"
	"github.com/obiorah-dev/bankrecon/internal/jobs/inmemory"
	"github.com/obiorah-dev/bankrecon/internal/logger"
	"github.com/obiorah-dev/bankrecon/internal/pdfextract"
	"github.com/obiorah-dev/bankrecon/internal/reconcile"
)

func main() {
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		model      = flag.String("model", ai.DefaultModel, "Gemini model for extraction fallback and classification")
		aiInterval = flag.Duration("ai-interval", 2*time.Second, "Minimum interval between model calls")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	store, err := infraBQ.NewStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()

	var fileStore archive.Store
	files, err := archive.NewGCS(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("No file archive available - statement uploads will be disabled")
	} else {
		defer files.Close()
		fileStore = files
	}

	// AI is optional: without an API key the keyword tier and the table/text
	// extraction strategies still run, only the model fallbacks are off.
	var aiClient *ai.Client
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		aiClient, err = ai.NewClient(ctx, *model, ai.NewLimiter(*aiInterval))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create AI client")
		}
	} else {
		log.Warn().Msg("No Gemini API key configured - AI extraction and classification disabled")
	}

	engine := &classify.Engine{}
	cascade := &pdfextract.Cascade{}
	aiModel := ""
	if aiClient != nil {
		engine.Classifier = aiClient
		cascade.AI = aiClient
		aiModel = aiClient.Model()
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	pipeline := ingest.NewStatementPipeline(store, fileStore, engine, cascade)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		jobLog := log.With().
			Str("job_id", parseJob.JobID).
			Str("statement_id", parseJob.StatementID).
			Logger()
		jobLog.Info().Str("file_uri", parseJob.FileURI).Msg("Processing parse job")

		err := pipeline.Execute(logger.WithContext(ctx, jobLog), &ingest.State{
			StatementID: parseJob.StatementID,
			BankName:    parseJob.BankName,
			FileURI:     parseJob.FileURI,
			FileType:    parseJob.FileType,
		})
		if err != nil {
			jobLog.Error().Err(err).Msg("Pipeline execution failed")
			return err
		}
		jobLog.Info().Msg("Pipeline execution completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	statementsHandler := handlers.NewStatementsHandler(store, fileStore, jobQueue, log)
	reconcileHandler := handlers.NewReconcileHandler(store, reconcile.NewMatcher(), log)
	ledgerHandler := handlers.NewLedgerHandler(store, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	healthHandler := handlers.NewHealthHandler(aiModel)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			statementsHandler.List(w, r)
		case http.MethodPost:
			statementsHandler.Upload(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Statement subresources: /api/statements/{id}[/rows|/auto-match|/status|/import]
	mux.HandleFunc("/api/statements/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/statements/")
		statementID, action, _ := strings.Cut(rest, "/")
		if statementID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Statement ID is required")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			statementsHandler.Get(w, r, statementID)
		case action == "rows" && r.Method == http.MethodGet:
			statementsHandler.ListRows(w, r, statementID)
		case action == "auto-match" && r.Method == http.MethodPost:
			reconcileHandler.AutoMatch(w, r, statementID)
		case action == "status" && r.Method == http.MethodGet:
			reconcileHandler.Status(w, r, statementID)
		case action == "import" && r.Method == http.MethodPost:
			reconcileHandler.ImportTransactions(w, r, statementID)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	mux.HandleFunc("/api/reconcile/match", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reconcileHandler.ManualMatch(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reconcile/unmatch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reconcileHandler.Unmatch(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ledgerHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", healthHandler.Health)

	handler := middleware.RequestID(log)(
		middleware.Recovery(
			middleware.Logger(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

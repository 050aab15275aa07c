package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/analysis"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/config"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/database"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/kafka"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/insights"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/llm"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/members"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/metrics"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	memberRepo := members.NewRepository(db)

	cat, err := catalog.Load(cfg.QuestionCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("question catalog load failed, using built-in defaults")
	}

	llmClient := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModelName, cfg.LLMRequestTimeout)
	if !llmClient.Configured() {
		logger.Log.Warn("LLM credentials not configured, extraction and recommendations disabled")
	}

	summaryRepo := metrics.NewRepository(db)
	if err := summaryRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate summary tables")
	}
	calculator := metrics.NewCalculator(summaryRepo, memberRepo, llmClient, cat)

	insightRepo := insights.NewRepository(db)
	if err := insightRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate insight tables")
	}
	insightSvc := insights.NewService(insightRepo, summaryRepo, llmClient, database.GetRedis(), cfg.PopulationCacheTTL)

	svc := analysis.NewService(db, memberRepo, calculator, insightSvc, cfg.AnalysisBatchSize)
	if err := svc.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate analysis tables")
	}

	handler := analysis.NewHTTPHandler(svc, insightSvc)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Completed imports queue follow-on analysis for the members they touched.
	consumer := kafka.NewConsumer(cfg.ImportKafkaTopic, cfg.KafkaGroupID)
	defer consumer.Close()
	go func() {
		if err := consumer.Consume(ctx, svc.HandleImportEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("import event consumer stopped")
		}
	}()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Analysis Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Analysis Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Analysis Service stopped")
}

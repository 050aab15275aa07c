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
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/config"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/database"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/kafka"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/importer"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/members"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/scoring"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	memberRepo := members.NewRepository(db)
	if err := memberRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate member tables")
	}

	cat, err := catalog.Load(cfg.QuestionCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("question catalog load failed, using built-in defaults")
	}

	resolver := importer.NewResolver(db, memberRepo)
	writer := importer.NewSessionWriter(db, resolver, cat)

	scorer := scoring.NewScorer(db, cat, cfg.ScorerSessionPage)
	if err := scorer.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate scoring tables")
	}

	producer := kafka.NewProducer(cfg.ImportKafkaTopic)
	defer producer.Close()

	var dlqProducer *kafka.Producer
	if cfg.ImportDLQTopic != "" {
		dlqProducer = kafka.NewProducer(cfg.ImportDLQTopic)
		defer dlqProducer.Close()
	}

	svc := importer.NewService(db, writer, scorer, producer, dlqProducer, cfg.ImportTimeBudget, cfg.ImportMaxErrors)
	if err := svc.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate import tables")
	}

	handler := importer.NewHTTPHandler(svc, cfg.MaxRequestBody)

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

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Import Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Import Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Import Service stopped")
}

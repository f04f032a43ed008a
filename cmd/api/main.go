package main

import (
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"sheetwise/adapters/blob"
	"sheetwise/adapters/excel"
	"sheetwise/adapters/llm"
	"sheetwise/adapters/postgres"
	"sheetwise/internal"
	"sheetwise/internal/api"
	"sheetwise/internal/config"
	mappingsvc "sheetwise/internal/mapping"
	"sheetwise/internal/structure"
	"sheetwise/internal/upload"
	"sheetwise/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] configuration error: %v", err)
	}
	logger := internal.NewDefaultLogger()

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("[Main] database connection failed: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("[Main] migration failed: %v", err)
	}

	blobs, err := blob.NewLocalStore(cfg.Blob.Dir)
	if err != nil {
		log.Fatalf("[Main] blob store init failed: %v", err)
	}

	dictionary := mappingsvc.NewCachedDictionary(postgres.NewDictionaryRepository(db))
	classifier := llm.NewClassifier(cfg.AI)
	mapper := mappingsvc.NewMapper(dictionary, classifier)
	detector := structure.NewDetector(cfg.Upload.MaxHeaderRows)
	pipeline := upload.NewPipeline(detector, mapper)

	hub := api.NewSSEHub()
	orchestrator := upload.NewOrchestrator(
		excel.NewOpener(),
		pipeline,
		blobs,
		postgres.NewUploadRepository(db),
		hub,
		cfg.Upload,
		logger,
	)

	server := ui.NewServer(orchestrator, hub)
	addr := ":" + cfg.Server.Port
	log.Printf("[Main] listening on %s (workers=%d, timeout=%s, mode=%s)",
		addr, cfg.Upload.Workers, cfg.Upload.SheetTimeout, cfg.Upload.TimeoutMode)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("[Main] server failed: %v", err)
	}
}

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	raven "github.com/getsentry/raven-go"
	"github.com/joho/godotenv"

	"github.com/techpulse-media/contact-backend/api"
	"github.com/techpulse-media/contact-backend/db"
	"github.com/techpulse-media/contact-backend/email"
	"github.com/techpulse-media/contact-backend/push"
)

func main() {
	godotenv.Load()
	raven.SetDSN(os.Getenv("SENTRY_DSN"))

	cfg, err := db.LoadEnvironmentVariables()
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.InitSQLDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.EnsureTables(); err != nil {
		log.Fatal(err)
	}
	emailConfig, err := email.MakeConfigFromEnv(database)
	if err != nil {
		log.Fatal(err)
	}
	pushConfig, err := push.MakeConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	a := api.API{
		Database: database,
		Emailer:  emailConfig,
		Pusher:   pushConfig,
		Debug:    os.Getenv("APP_ENV") != "production",
	}
	mux := http.NewServeMux()
	a.RegisterHandlers(mux)
	// Verification landing pages and the service worker.
	mux.Handle("/", http.FileServer(http.Dir("public")))

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware(mux)))
}

/**
 * @description
 * This file sets up the HTTP router for the voice assistant service. It
 * defines the API endpoints, associates them with their handlers, and
 * applies standard middleware. CORS is open because the demo softphone runs
 * in a browser on a separate origin.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: HTTP routing and middleware.
 * - github.com/go-chi/cors: CORS middleware.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the voice assistant service.
func Routes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Telephony surface
	r.Get("/twilio/token", h.TwilioTokenHandler)
	r.Post("/twilio/voice", h.VoiceWebhookHandler)

	// Text chat surface for the helper clients
	r.Post("/assistant/chat", h.ChatHandler)

	// Read-only banking endpoints for the demo frontend
	r.Get("/banking/account", h.GetAccountHandler)
	r.Get("/banking/transactions", h.ListTransactionsHandler)

	return r
}

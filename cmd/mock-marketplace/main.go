// Package main implements a mock marketplace and LLM server for local
// bidflow runs. It serves the marketplace project feed, user lookups and
// bid placement from a JSON fixture file, plus OpenAI-compatible
// /chat/completions responses routed by prompt content. This eliminates
// the need for real marketplace credentials or a real LLM during
// development, making runs fast, deterministic, and offline-capable.
//
// Usage:
//
//	mock-marketplace -fixture /path/to/projects.json -port 8181
//
// Point bidflow at it with:
//
//	marketplace:
//	  base_url: http://localhost:8181
//	llm:
//	  endpoint: http://localhost:8181
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// --- Marketplace wire types ---

type envelope struct {
	Status string `json:"status"`
	Result any    `json:"result"`
}

type fixtureProject struct {
	ID                 int64  `json:"id"`
	OwnerID            int64  `json:"owner_id"`
	Title              string `json:"title"`
	PreviewDescription string `json:"preview_description"`
	Description        string `json:"description"`
	Status             string `json:"status"`
	Type               string `json:"type"`
	Currency           struct {
		Code         string  `json:"code"`
		ExchangeRate float64 `json:"exchange_rate"`
	} `json:"currency"`
	Budget struct {
		Minimum float64 `json:"minimum"`
		Maximum float64 `json:"maximum"`
	} `json:"budget"`
	Upgrades struct {
		NDA bool `json:"NDA"`
	} `json:"upgrades"`
	SubmitDate   int64  `json:"submitdate"`
	SEOURL       string `json:"seo_url"`
	OwnerCountry string `json:"owner_country"`
}

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// --- Server ---

type server struct {
	projects []fixtureProject

	feedCalls atomic.Int64
	chatCalls atomic.Int64

	mu   sync.Mutex
	bids []map[string]any
}

func main() {
	fixturePath := flag.String("fixture", "", "JSON file with fixture projects (empty = built-in sample)")
	port := flag.Int("port", 8181, "port to listen on")
	flag.Parse()

	projects, err := loadProjects(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture from %s: %v", *fixturePath, err)
	}
	log.Printf("Serving %d fixture project(s)", len(projects))

	s := &server{projects: projects}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/projects/0.1/projects/active/", s.handleFeed)
	mux.HandleFunc("/api/projects/0.1/projects/", s.handleDetails)
	mux.HandleFunc("/api/users/0.1/self/", s.handleSelf)
	mux.HandleFunc("/api/users/0.1/users/", s.handleUser)
	mux.HandleFunc("/api/projects/0.1/bids/", s.handleBids)
	mux.HandleFunc("/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock marketplace listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadProjects(path string) ([]fixtureProject, error) {
	if path == "" {
		return sampleProjects(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var projects []fixtureProject
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func sampleProjects() []fixtureProject {
	var p fixtureProject
	p.ID = 1001
	p.OwnerID = 501
	p.Title = "Build a Shopify storefront"
	p.PreviewDescription = "Need a new online shop for handmade goods."
	p.Description = "We sell handmade ceramics and need a Shopify store with a custom theme, product photography layout and checkout."
	p.Status = "active"
	p.Type = "fixed"
	p.Currency.Code = "USD"
	p.Currency.ExchangeRate = 1.0
	p.Budget.Minimum = 250
	p.Budget.Maximum = 750
	p.SubmitDate = time.Now().Add(-5 * time.Minute).Unix()
	p.SEOURL = "shopify/Build-Shopify-storefront"
	p.OwnerCountry = "Germany"

	var q fixtureProject
	q.ID = 1002
	q.OwnerID = 502
	q.Title = "Logo for coffee brand"
	q.PreviewDescription = "Minimal logo for a specialty coffee roaster."
	q.Description = "Specialty coffee roaster looking for a minimal wordmark and icon, with brand colors and social media variants."
	q.Status = "active"
	q.Type = "fixed"
	q.Currency.Code = "EUR"
	q.Currency.ExchangeRate = 1.1
	q.Budget.Minimum = 50
	q.Budget.Maximum = 200
	q.SubmitDate = time.Now().Add(-10 * time.Minute).Unix()
	q.SEOURL = "logo-design/Logo-coffee-brand"
	q.OwnerCountry = "France"

	return []fixtureProject{p, q}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleFeed serves the active-project search feed.
func (s *server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	s.feedCalls.Add(1)
	writeEnvelope(w, map[string]any{"projects": s.projects})
}

// handleDetails serves full project records for projects[] query IDs.
func (s *server) handleDetails(w http.ResponseWriter, r *http.Request) {
	wanted := map[string]bool{}
	for _, id := range r.URL.Query()["projects[]"] {
		wanted[id] = true
	}

	matched := make([]fixtureProject, 0, len(wanted))
	for _, p := range s.projects {
		if wanted[fmt.Sprintf("%d", p.ID)] {
			matched = append(matched, p)
		}
	}
	writeEnvelope(w, map[string]any{"projects": matched})
}

func (s *server) handleSelf(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, map[string]any{"id": 9000, "username": "mock-bidder"})
}

// handleUser serves owner records with the fixture's owner_country.
func (s *server) handleUser(w http.ResponseWriter, r *http.Request) {
	idPart := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/0.1/users/"), "/")
	country := "Germany"
	for _, p := range s.projects {
		if fmt.Sprintf("%d", p.OwnerID) == idPart && p.OwnerCountry != "" {
			country = p.OwnerCountry
		}
	}
	writeEnvelope(w, map[string]any{
		"id":       idPart,
		"username": "client-" + idPart,
		"location": map[string]any{
			"country": map[string]any{"name": country},
		},
	})
}

// handleBids accepts placements (POST) and seals (PUT).
func (s *server) handleBids(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid bid body", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.bids = append(s.bids, req)
		bidID := 7000 + len(s.bids)
		s.mu.Unlock()
		log.Printf("Bid placed on project %v: amount %v", req["project_id"], req["amount"])
		writeEnvelope(w, map[string]any{
			"id":         bidID,
			"project_id": req["project_id"],
			"bidder_id":  req["bidder_id"],
			"amount":     req["amount"],
			"period":     req["period"],
		})
	case http.MethodPut:
		writeEnvelope(w, map[string]any{"sealed": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleChatCompletions answers by pipeline stage, recognized from the
// system prompt, so one mock serves qualification, pricing and
// composition.
func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	s.chatCalls.Add(1)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	system := ""
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
		}
	}

	content := "This project fits your goals and we can deliver it end to end.\n\nRegards,\nThe Mock Team"
	switch {
	case strings.Contains(system, "qualifier"):
		content = "MATCH"
	case strings.Contains(system, "pricing analyst"):
		content = "Budget: 500 USD, Deadline: 10 days"
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", s.chatCalls.Load()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleStats reports call counts and captured bids for verification.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	bids := make([]map[string]any, len(s.bids))
	copy(bids, s.bids)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"feed_calls": s.feedCalls.Load(),
		"chat_calls": s.chatCalls.Load(),
		"bids":       bids,
	})
}

func writeEnvelope(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{Status: "success", Result: result})
}

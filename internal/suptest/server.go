// Package suptest runs an in-memory stand-in for the hosted backend: the
// subset of the PostgREST table API and GoTrue auth API that the client
// uses, plus fault injection for failure-path tests.
package suptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scentara/internal/model"
)

const jwtSecret = "suptest-signing-secret"

const pgUniqueViolation = "23505"

type user struct {
	ID       string
	Email    string
	Password string
}

type Server struct {
	httpServer *httptest.Server

	mu          sync.Mutex
	perfumes    []model.Perfume
	profiles    map[string]*model.Profile
	collections []*model.Collection
	items       []*model.CollectionItem
	users       map[string]*user // keyed by email

	failNext    int
	failDeletes map[string]bool
}

func NewServer() *Server {
	s := &Server{
		profiles:    make(map[string]*model.Profile),
		users:       make(map[string]*user),
		failDeletes: make(map[string]bool),
	}

	r := chi.NewRouter()

	r.Post("/auth/v1/signup", s.handleSignUp)
	r.Post("/auth/v1/token", s.handleToken)
	r.Post("/auth/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/auth/v1/recover", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	})
	r.Get("/auth/v1/user", s.handleGetUser)

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(s.faultMiddleware)

		r.Get("/perfumes", s.handleListPerfumes)

		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleInsertProfile)
		r.Patch("/profiles", s.handleUpdateProfile)

		r.Get("/collections", s.handleListCollections)
		r.Post("/collections", s.handleInsertCollection)
		r.Patch("/collections", s.handleUpdateCollection)
		r.Delete("/collections", s.handleDeleteCollection)

		r.Get("/collection_items", s.handleListItems)
		r.Post("/collection_items", s.handleInsertItem)
		r.Delete("/collection_items", s.handleDeleteItem)
	})

	s.httpServer = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string {
	return s.httpServer.URL
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// FailNextRequests makes the next n table requests fail with a 500.
func (s *Server) FailNextRequests(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// FailDeleteOf makes deletes of one membership row fail with a 500.
func (s *Server) FailDeleteOf(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes[itemID] = true
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		if s.failNext > 0 {
			s.failNext--
			s.mu.Unlock()
			writeError(w, http.StatusInternalServerError, "XX000", "injected failure")
			return
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Seeding and inspection

func (s *Server) SeedPerfumes(perfumes []model.Perfume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perfumes = append(s.perfumes, perfumes...)
}

// SeedUser registers an auth user and returns its identity id.
func (s *Server) SeedUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: uuid.NewString(), Email: email, Password: password}
	s.users[email] = u
	return u.ID
}

func (s *Server) SeedProfile(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.profiles[p.ID] = &p
}

func (s *Server) SeedCollection(c model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.collections = append(s.collections, &c)
}

func (s *Server) SeedItem(item model.CollectionItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, &item)
}

// CollectionsOf returns the stored collections owned by an identity.
func (s *Server) CollectionsOf(identityID string) []model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Collection
	for _, c := range s.collections {
		if c.UserID == identityID {
			out = append(out, *c)
		}
	}
	return out
}

// ItemsOf returns the stored membership rows of a collection.
func (s *Server) ItemsOf(collectionID string) []model.CollectionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CollectionItem
	for _, item := range s.items {
		if item.CollectionID == collectionID {
			out = append(out, *item)
		}
	}
	return out
}

// ProfileOf returns the stored profile for an identity, or nil.
func (s *Server) ProfileOf(identityID string) *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[identityID]; ok {
		copied := *p
		return &copied
	}
	return nil
}

// ---------------------------------------------------------------------------
// Auth handlers

type authSessionOut struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	User         authUserOut `json:"user"`
}

type authUserOut struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		writeAuthError(w, http.StatusBadRequest, "User already registered")
		return
	}
	u := &user{ID: uuid.NewString(), Email: req.Email, Password: req.Password}
	s.users[req.Email] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.sessionFor(u))
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeAuthError(w, http.StatusBadRequest, "unsupported grant type")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeAuthError(w, http.StatusBadRequest, "Invalid login credentials")
		return
	}

	writeJSON(w, http.StatusOK, s.sessionFor(u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u := s.userFromToken(r)
	if u == nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, authUserOut{ID: u.ID, Email: u.Email, Role: "authenticated"})
}

func (s *Server) sessionFor(u *user) authSessionOut {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))

	return authSessionOut{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: uuid.NewString(),
		User:         authUserOut{ID: u.ID, Email: u.Email, Role: "authenticated"},
	}
}

func (s *Server) userFromToken(r *http.Request) *user {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil
	}

	sub, _ := claims.GetSubject()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == sub {
			return u
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Perfume handlers

func (s *Server) handleListPerfumes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	matched := make([]model.Perfume, 0, len(s.perfumes))
	for _, p := range s.perfumes {
		if id, ok := eqFilter(q, "id"); ok {
			want, _ := strconv.ParseInt(id, 10, 64)
			if p.ID != want {
				continue
			}
		}
		if pattern, ok := ilikeFilter(q, "name"); ok {
			needle := strings.ToLower(strings.Trim(pattern, "*"))
			if !strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	matched = applyLimit(matched, q)

	if wantsSingle(r) {
		if len(matched) == 0 {
			writeError(w, http.StatusNotAcceptable, "PGRST116", "JSON object requested, multiple (or no) rows returned")
			return
		}
		writeJSON(w, http.StatusOK, matched[0])
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

// ---------------------------------------------------------------------------
// Profile handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	matched := make([]model.Profile, 0, 1)
	for _, p := range s.profiles {
		if id, ok := eqFilter(q, "id"); ok && p.ID != id {
			continue
		}
		if username, ok := eqFilter(q, "username"); ok && p.Username != username {
			continue
		}
		if id, ok := neqFilter(q, "id"); ok && p.ID == id {
			continue
		}
		matched = append(matched, *p)
	}
	s.mu.Unlock()

	matched = applyLimit(matched, q)

	if wantsSingle(r) {
		if len(matched) == 0 {
			writeError(w, http.StatusNotAcceptable, "PGRST116", "JSON object requested, multiple (or no) rows returned")
			return
		}
		writeJSON(w, http.StatusOK, matched[0])
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleInsertProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		writeError(w, http.StatusConflict, pgUniqueViolation, "duplicate key value violates unique constraint \"profiles_pkey\"")
		return
	}
	for _, existing := range s.profiles {
		if existing.Username == p.Username {
			writeError(w, http.StatusConflict, pgUniqueViolation, "duplicate key value violates unique constraint \"profiles_username_key\"")
			return
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.profiles[p.ID] = &p

	writeJSON(w, http.StatusCreated, []model.Profile{p})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := eqFilter(r.URL.Query(), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "PGRST100", "missing id filter")
		return
	}

	var patch model.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.profiles[id]
	if !exists {
		writeJSON(w, http.StatusOK, []model.Profile{})
		return
	}

	if patch.Username != nil {
		for _, other := range s.profiles {
			if other.ID != id && other.Username == *patch.Username {
				writeError(w, http.StatusConflict, pgUniqueViolation, "duplicate key value violates unique constraint \"profiles_username_key\"")
				return
			}
		}
		p.Username = *patch.Username
	}
	if patch.Gender != nil {
		p.Gender = patch.Gender
	}
	if patch.Age != nil {
		p.Age = patch.Age
	}
	if patch.Country != nil {
		p.Country = patch.Country
	}
	p.UpdatedAt = time.Now().UTC()

	writeJSON(w, http.StatusOK, []model.Profile{*p})
}

// ---------------------------------------------------------------------------
// Collection handlers

type collectionOut struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	IsDefault   bool                   `json:"is_default"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Items       []model.CollectionItem `json:"collection_items,omitempty"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	embedItems := strings.Contains(q.Get("select"), "collection_items")

	s.mu.Lock()
	matched := make([]*model.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		if userID, ok := eqFilter(q, "user_id"); ok && c.UserID != userID {
			continue
		}
		if id, ok := eqFilter(q, "id"); ok && c.ID != id {
			continue
		}
		matched = append(matched, c)
	}

	// Default collections first, then by creation time ascending, matching
	// the order parameter the client always sends.
	outs := make([]collectionOut, 0, len(matched))
	for _, c := range sortCollections(matched) {
		out := collectionOut{
			ID:          c.ID,
			UserID:      c.UserID,
			Name:        c.Name,
			Description: c.Description,
			IsDefault:   c.IsDefault,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
		if embedItems {
			out.Items = []model.CollectionItem{}
			for _, item := range s.items {
				if item.CollectionID == c.ID {
					out.Items = append(out.Items, *item)
				}
			}
		}
		outs = append(outs, out)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, outs)
}

func sortCollections(collections []*model.Collection) []*model.Collection {
	sorted := make([]*model.Collection, len(collections))
	copy(sorted, collections)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && collectionLess(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

func collectionLess(a, b *model.Collection) bool {
	if a.IsDefault != b.IsDefault {
		return a.IsDefault
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (s *Server) handleInsertCollection(w http.ResponseWriter, r *http.Request) {
	var c model.Collection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.mu.Lock()
	s.collections = append(s.collections, &c)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, []collectionOut{{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Description: c.Description,
		IsDefault:   c.IsDefault,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}})
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := eqFilter(r.URL.Query(), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "PGRST100", "missing id filter")
		return
	}

	var patch model.CollectionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.collections {
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Description != nil {
			c.Description = patch.Description
		}
		c.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, []collectionOut{{
			ID:          c.ID,
			UserID:      c.UserID,
			Name:        c.Name,
			Description: c.Description,
			IsDefault:   c.IsDefault,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}})
		return
	}
	writeJSON(w, http.StatusOK, []collectionOut{})
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := eqFilter(r.URL.Query(), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "PGRST100", "missing id filter")
		return
	}

	s.mu.Lock()
	kept := s.collections[:0]
	for _, c := range s.collections {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.collections = kept

	keptItems := s.items[:0]
	for _, item := range s.items {
		if item.CollectionID != id {
			keptItems = append(keptItems, item)
		}
	}
	s.items = keptItems
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Collection item handlers

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	matched := make([]model.CollectionItem, 0, len(s.items))
	for _, item := range s.items {
		if collectionID, ok := eqFilter(q, "collection_id"); ok && item.CollectionID != collectionID {
			continue
		}
		if perfumeID, ok := eqFilter(q, "perfume_id"); ok {
			want, _ := strconv.ParseInt(perfumeID, 10, 64)
			if item.PerfumeID != want {
				continue
			}
		}
		matched = append(matched, *item)
	}
	s.mu.Unlock()

	matched = applyLimit(matched, q)
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleInsertItem(w http.ResponseWriter, r *http.Request) {
	var item model.CollectionItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.CollectionID == item.CollectionID && existing.PerfumeID == item.PerfumeID {
			writeError(w, http.StatusConflict, pgUniqueViolation, "duplicate key value violates unique constraint \"collection_items_collection_id_perfume_id_key\"")
			return
		}
	}

	s.items = append(s.items, &item)
	writeJSON(w, http.StatusCreated, []model.CollectionItem{item})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := eqFilter(r.URL.Query(), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "PGRST100", "missing id filter")
		return
	}

	s.mu.Lock()
	if s.failDeletes[id] {
		s.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "XX000", "injected delete failure")
		return
	}

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// PostgREST-ish plumbing

func eqFilter(q url.Values, column string) (string, bool) {
	return opFilter(q, column, "eq.")
}

func neqFilter(q url.Values, column string) (string, bool) {
	return opFilter(q, column, "neq.")
}

func ilikeFilter(q url.Values, column string) (string, bool) {
	return opFilter(q, column, "ilike.")
}

func opFilter(q url.Values, column, prefix string) (string, bool) {
	for _, v := range q[column] {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix), true
		}
	}
	return "", false
}

func applyLimit[T any](rows []T, q url.Values) []T {
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || limit >= len(rows) {
		return rows
	}
	return rows[:limit]
}

func wantsSingle(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/vnd.pgrst.object+json"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError emits the PostgREST error shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":             "invalid_grant",
		"error_description": message,
		"msg":               message,
	})
}

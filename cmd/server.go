package main

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-engine/internal/knowledge"
	"github.com/sells-group/outreach-engine/internal/model"
	"github.com/sells-group/outreach-engine/internal/pipeline"
	"github.com/sells-group/outreach-engine/internal/store"
)

const maxUploadFiles = 10

// newRouter wires the HTTP API over an initialized environment.
func newRouter(env *appEnv, allowedOrigins []string, uploadDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", handleAnalyze(env))
		r.Get("/analyze/{id}", handleAnalyzeStatus(env))

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/", handleKnowledgeList(env))
			r.Post("/upload", handleKnowledgeUpload(env, uploadDir))
			r.Post("/search", handleKnowledgeSearch(env))
			r.Get("/stats", handleKnowledgeStats(env))
			r.Delete("/{id}", handleKnowledgeDelete(env))
		})

		r.Get("/health", handleHealth)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleAnalyze(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProfileURL string `json:"profileUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id, err := env.Pipeline.Submit(r.Context(), req.ProfileURL)
		if err != nil {
			if eris.Is(err, pipeline.ErrInvalidProfileURL) {
				respondError(w, http.StatusBadRequest, "a valid profile URL is required")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to start analysis")
			return
		}

		respondJSON(w, http.StatusAccepted, map[string]string{
			"analysisId": id,
			"status":     "started",
		})
	}
}

func handleAnalyzeStatus(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := env.Pipeline.Get(r.Context(), id)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "analysis not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		respondJSON(w, http.StatusOK, job)
	}
}

func handleKnowledgeUpload(env *appEnv, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			respondError(w, http.StatusBadRequest, "no files provided")
			return
		}
		if len(files) > maxUploadFiles {
			respondError(w, http.StatusBadRequest, "too many files in one upload")
			return
		}

		meta := model.KnowledgeMetadata{
			Category:   r.FormValue("category"),
			Priority:   r.FormValue("priority"),
			UploadedBy: r.FormValue("uploaded_by"),
		}
		if tags := strings.TrimSpace(r.FormValue("tags")); tags != "" {
			meta.Tags = strings.Split(tags, ",")
		}

		batch := make([]knowledge.IngestFile, 0, len(files))
		for _, fh := range files {
			path, err := stageUpload(fh, uploadDir)
			if err != nil {
				zap.L().Error("failed to stage upload", zap.String("file", fh.Filename), zap.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to store upload")
				return
			}
			batch = append(batch, knowledge.IngestFile{Path: path, Name: fh.Filename, Meta: meta})
		}

		outcomes := env.Knowledge.IngestBatch(r.Context(), batch)
		respondJSON(w, http.StatusOK, map[string]any{"results": outcomes})
	}
}

// stageUpload copies a multipart file into the upload directory under an
// opaque name; the engine removes it after extraction.
func stageUpload(fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "create upload dir")
	}

	src, err := fh.Open()
	if err != nil {
		return "", eris.Wrap(err, "open upload")
	}
	defer src.Close()

	path := filepath.Join(dir, uuid.NewString())
	dst, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "create staging file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", eris.Wrap(err, "write staging file")
	}
	return path, nil
}

func handleKnowledgeSearch(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query    string `json:"query"`
			Category string `json:"category"`
			Limit    int    `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		results, err := env.Knowledge.Search(req.Query, req.Category, req.Limit)
		if err != nil {
			if eris.Is(err, knowledge.ErrEmptyQuery) {
				respondError(w, http.StatusBadRequest, "search query is required")
				return
			}
			respondError(w, http.StatusInternalServerError, "search failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"query":   req.Query,
			"count":   len(results),
			"results": results,
		})
	}
}

func handleKnowledgeList(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := queryInt(q.Get("limit"), 50)
		offset := queryInt(q.Get("offset"), 0)
		items := env.Knowledge.List(q.Get("category"), q.Get("search"), limit, offset)
		respondJSON(w, http.StatusOK, map[string]any{
			"count":     len(items),
			"documents": items,
		})
	}
}

func handleKnowledgeStats(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, env.Knowledge.Stats())
	}
}

func handleKnowledgeDelete(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		existed, err := env.Knowledge.Delete(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		if !existed {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func queryInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

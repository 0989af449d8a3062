// Package webui serves a read-only browser view over exported analysis
// run directories.
package webui

import (
	"compress/gzip"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdv-analysis/internal/analyzer"
	"github.com/pdv-analysis/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server represents the web UI server
type Server struct {
	dataDir string
	addr    string
	engine  *analyzer.Analyzer
	logger  utils.Logger
	server  *http.Server
}

// NewServer creates a new web UI server. The engine is used to compute
// density maps on demand from raw files inside run directories.
func NewServer(dataDir, addr string, engine *analyzer.Analyzer, logger utils.Logger) *Server {
	if engine == nil {
		engine = analyzer.New(nil)
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Server{
		dataDir: dataDir,
		addr:    addr,
		engine:  engine,
		logger:  logger,
	}
}

// Start starts the web server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting web server at http://localhost%s", s.addr)
	s.logger.Info("Serving run data from: %s", s.dataDir)
	s.logger.Info("Press Ctrl+C to stop")

	return s.server.ListenAndServe()
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static file server (CSS, JS)
	// Use fs.Sub to strip the "static" prefix from the embedded filesystem
	staticSubFS, err := fs.Sub(staticFS, "static")
	if err == nil {
		staticHandler := http.FileServer(http.FS(staticSubFS))
		mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))
	}

	// API routes
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/blocks", s.handleSection("blocks"))
	mux.HandleFunc("/api/regions", s.handleSection("null_regions"))
	mux.HandleFunc("/api/invoices", s.handleSection("invoice_records"))
	mux.HandleFunc("/api/density", s.handleDensity)

	// Page routes
	mux.HandleFunc("/", s.handleIndex)

	return mux
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleIndex serves the main HTML page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, "Template error", http.StatusInternalServerError)
		s.logger.Error("Failed to parse template: %v", err)
		return
	}

	data := map[string]interface{}{
		"DataDir": s.dataDir,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("Failed to execute template: %v", err)
	}
}

// handleListRuns lists all run directories under the data dir
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	type RunInfo struct {
		ID        string `json:"id"`
		CreatedAt string `json:"created_at"`
		HasReport bool   `json:"has_report"`
	}

	runs := []RunInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, _ := entry.Info()
		createdAt := ""
		if info != nil {
			createdAt = info.ModTime().Format(time.RFC3339)
		}

		_, reportErr := s.findReport(entry.Name())
		runs = append(runs, RunInfo{
			ID:        entry.Name(),
			CreatedAt: createdAt,
			HasReport: reportErr == nil,
		})
	}

	// Sort by creation time (newest first)
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt > runs[j].CreatedAt
	})

	writeJSONHeader(w)
	json.NewEncoder(w).Encode(runs)
}

// handleReport returns the full JSON report of a run
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSONHeader(w)
	w.Write(data)
}

// handleSummary returns the summary.json of a run, falling back to the
// file section of its report.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	runID := s.runID(r)
	if runID == "" {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	summaryFile := filepath.Join(s.dataDir, runID, "summary.json")
	if data, err := os.ReadFile(summaryFile); err == nil {
		writeJSONHeader(w)
		w.Write(data)
		return
	}

	data, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	var report map[string]json.RawMessage
	if err := json.Unmarshal(data, &report); err != nil {
		http.Error(w, "Failed to parse report", http.StatusInternalServerError)
		return
	}

	writeJSONHeader(w)
	w.Write(report["file"])
}

// handleSection serves one top-level array of the run's report.
func (s *Server) handleSection(section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.loadReport(w, r)
		if !ok {
			return
		}

		var report map[string]json.RawMessage
		if err := json.Unmarshal(data, &report); err != nil {
			http.Error(w, "Failed to parse report", http.StatusInternalServerError)
			return
		}

		writeJSONHeader(w)
		if raw, found := report[section]; found && string(raw) != "null" {
			w.Write(raw)
			return
		}
		w.Write([]byte("[]"))
	}
}

// handleDensity computes the density map of a raw file inside a run
// directory. The file defaults to the first non-export file found.
func (s *Server) handleDensity(w http.ResponseWriter, r *http.Request) {
	runID := s.runID(r)
	if runID == "" {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("file")
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || name == ".." {
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = s.findRawFile(runID)
	}
	if name == "" {
		http.Error(w, "Raw backup file not found", http.StatusNotFound)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, runID, name))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusNotFound)
		return
	}

	windows := s.engine.DensityMap(data, 0)

	writeJSONHeader(w)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"file":    name,
		"size":    len(data),
		"windows": windows,
	})
}

// runID resolves the requested run, defaulting to the most recent one.
// Path separators are rejected so requests cannot escape the data dir.
func (s *Server) runID(r *http.Request) string {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		runID = s.getDefaultRun()
	}
	if strings.Contains(runID, "/") || strings.Contains(runID, "\\") || runID == ".." {
		return ""
	}
	return runID
}

// loadReport reads and, when gzipped, decompresses the report of the
// requested run. Errors are written to the response.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	runID := s.runID(r)
	if runID == "" {
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil, false
	}

	reportFile, err := s.findReport(runID)
	if err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return nil, false
	}

	file, err := os.Open(reportFile)
	if err != nil {
		http.Error(w, "Failed to open report", http.StatusInternalServerError)
		return nil, false
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(reportFile, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			http.Error(w, "Failed to decompress report", http.StatusInternalServerError)
			return nil, false
		}
		defer gzReader.Close()
		reader = gzReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		http.Error(w, "Failed to read report", http.StatusInternalServerError)
		return nil, false
	}

	return data, true
}

// findReport locates the *_report.json or *_report.json.gz of a run.
func (s *Server) findReport(runID string) (string, error) {
	runDir := filepath.Join(s.dataDir, runID)
	files, err := os.ReadDir(runDir)
	if err != nil {
		return "", err
	}

	for _, f := range files {
		name := f.Name()
		if strings.HasSuffix(name, "_report.json") || strings.HasSuffix(name, "_report.json.gz") {
			return filepath.Join(runDir, name), nil
		}
	}

	return "", os.ErrNotExist
}

// findRawFile returns the first file in the run dir that is not an export
// artifact, assumed to be the archived backup image.
func (s *Server) findRawFile(runID string) string {
	files, err := os.ReadDir(filepath.Join(s.dataDir, runID))
	if err != nil {
		return ""
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		switch {
		case strings.HasSuffix(name, ".json"), strings.HasSuffix(name, ".json.gz"):
		case strings.HasSuffix(name, ".csv"), strings.HasSuffix(name, ".zip"):
		default:
			return name
		}
	}

	return ""
}

// getDefaultRun returns the most recently modified run directory.
func (s *Server) getDefaultRun() string {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return ""
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = entry.Name()
		}
	}

	return latest
}

func writeJSONHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"imresize-go/internal/batch"
	"imresize-go/internal/codec"
	"imresize-go/internal/config"
	"imresize-go/internal/resizer"
	"imresize-go/internal/statistics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	codec      codec.Codec
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.Mutex

	// Current batch state
	operationMutex sync.RWMutex
	isRunning      bool
	currentStats   *statistics.Statistics
	lastError      string
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ResizeRequest starts a batch. Empty fields fall back to the server configuration.
type ResizeRequest struct {
	Files           []string `json:"files"`
	OutputDirectory string   `json:"output_directory,omitempty"`
	Size            string   `json:"size,omitempty"`
	Suffix          string   `json:"suffix,omitempty"`
	Format          string   `json:"format,omitempty"`
	Quality         int      `json:"quality,omitempty"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	IsImage      bool   `json:"is_image"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FileEvent is broadcast for every processed file.
type FileEvent struct {
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, log *logrus.Logger, c codec.Codec) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		codec:     c,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/formats", s.handleFormats).Methods("GET")
	api.HandleFunc("/resize", s.handleResize).Methods("POST")
	api.HandleFunc("/directories", s.handleListDirectories).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// IsRunning reports whether a batch is in progress.
func (s *Server) IsRunning() bool {
	s.operationMutex.RLock()
	defer s.operationMutex.RUnlock()
	return s.isRunning
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	stats := s.currentStats
	lastError := s.lastError
	s.operationMutex.RUnlock()

	var statsData interface{}
	if stats != nil {
		statsData = stats.Snapshot()
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    running,
			"statistics": statsData,
			"last_error": lastError,
		},
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    s.codec.Formats(),
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Files) == 0 {
		s.writeError(w, "At least one file is required", http.StatusBadRequest)
		return
	}

	cfg, err := s.configFor(req)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	s.isRunning = true
	s.currentStats = statistics.NewStatistics()
	s.lastError = ""
	stats := s.currentStats
	s.operationMutex.Unlock()

	go s.runResizeAsync(cfg, req.Files, stats)

	s.writeJSONStatus(w, APIResponse{
		Success: true,
		Message: "Resize started",
	}, http.StatusAccepted)
}

// configFor overlays the request on a copy of the server configuration.
func (s *Server) configFor(req ResizeRequest) (*config.Config, error) {
	cfg := *s.cfg

	if req.OutputDirectory != "" {
		cfg.OutputDirectory = req.OutputDirectory
	}
	if req.Size != "" {
		width, height, err := config.ParseSize(req.Size)
		if err != nil {
			return nil, err
		}
		cfg.Width, cfg.Height = width, height
	}
	if req.Suffix != "" {
		cfg.Suffix = req.Suffix
	}
	if req.Format != "" {
		cfg.Format = req.Format
	}
	if req.Quality != 0 {
		cfg.Quality = req.Quality
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) handleListDirectories(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	// Security check - prevent directory traversal
	path = filepath.Clean(path)
	if escapesRoot(path) {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	directories := make([]DirectoryInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		_, isImage := codec.ParseFormat(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		directories = append(directories, DirectoryInfo{
			Path:         filepath.Join(path, entry.Name()),
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			IsImage:      !entry.IsDir() && isImage,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    directories,
	})
}

// escapesRoot reports whether a cleaned path climbs to a parent directory.
func escapesRoot(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) clientCount() int {
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()
	return len(s.wsClients)
}

func (s *Server) runResizeAsync(cfg *config.Config, files []string, stats *statistics.Statistics) {
	s.broadcastWSMessage("resize_started", map[string]interface{}{
		"files":            len(files),
		"output_directory": cfg.OutputDirectory,
	})

	summary, err := s.runBatch(cfg, files, stats)

	s.operationMutex.Lock()
	s.isRunning = false
	if err != nil {
		s.lastError = err.Error()
	}
	s.operationMutex.Unlock()

	if err != nil {
		s.log.Errorf("Resize batch failed: %v", err)
		s.broadcastWSMessage("resize_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.broadcastWSMessage("resize_completed", map[string]interface{}{
		"generated":       summary.Generated,
		"errors":          summary.Errors,
		"elapsed_seconds": summary.ElapsedSeconds(),
	})
}

func (s *Server) runBatch(cfg *config.Config, files []string, stats *statistics.Statistics) (batch.Summary, error) {
	runner, closeFn, err := batch.NewFromConfig(cfg, s.log, stats, s.codec, func(res resizer.Result) {
		event := FileEvent{
			Input:   res.InputPath,
			Output:  res.OutputPath,
			Success: res.Success,
		}
		if res.Success {
			event.Width, event.Height = res.Width, res.Height
		}
		if res.Error != nil {
			event.Error = res.Error.Error()
		}
		s.broadcastWSMessage("file_processed", event)
	})
	if err != nil {
		return batch.Summary{}, err
	}
	defer closeFn()

	return runner.Run(files)
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			delete(s.wsClients, conn)
			conn.Close()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	s.writeJSONStatus(w, data, http.StatusOK)
}

// writeJSONStatus sets the content type before the status line is sent.
func (s *Server) writeJSONStatus(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSONStatus(w, APIResponse{
		Success: false,
		Error:   message,
	}, statusCode)
}

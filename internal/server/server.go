package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loclocko/locomotive/internal/logger"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/database/queries"
	"github.com/loclocko/locomotive/pkg/models"
	"github.com/loclocko/locomotive/pkg/storage"
)

// RunStore is the shared database view of stored runs, satisfied by
// queries.RunsRepository.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]queries.RunRecord, error)
	GetRun(ctx context.Context, runID string) (*queries.RunRecord, error)
}

// Server is the read-only dashboard over the artifact store: run history,
// verdict JSON, report HTML, and a websocket pushing history updates.
// With a RunStore attached the run endpoints read from the shared database
// instead of the local filesystem.
type Server struct {
	cfg      config.ServerConfig
	store    *storage.Storage
	runStore RunStore
	hub      *Hub
}

func New(cfg config.ServerConfig, store *storage.Storage, runStore RunStore) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		runStore: runStore,
		hub:      NewHub(cfg.BroadcastBuffer),
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/runs", s.handleListRuns)
	engine.GET("/api/runs/:id", s.handleRunVerdict)
	engine.GET("/api/runs/:id/metrics", s.handleRunMetrics)
	engine.GET("/api/baseline", s.handleBaseline)
	engine.GET("/runs/:id/report", s.handleRunReport)
	engine.GET("/ws", func(c *gin.Context) {
		s.hub.serveWS(c.Writer, c.Request)
	})

	return engine
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runStore != nil {
		records, err := s.runStore.ListRuns(c.Request.Context(), 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": records})
		return
	}
	history, err := s.store.LoadHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) handleRunVerdict(c *gin.Context) {
	if s.runStore != nil {
		record, err := s.runStore.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if record == nil || record.Verdict == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
			return
		}
		c.JSON(http.StatusOK, record.Verdict)
		return
	}
	var verdict models.Verdict
	if err := s.store.LoadJSON(s.store.AnalysisPath(c.Param("id")), &verdict); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) handleRunMetrics(c *gin.Context) {
	if s.runStore != nil {
		record, err := s.runStore.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "metrics not found"})
			return
		}
		c.JSON(http.StatusOK, record.Metrics)
		return
	}
	var metrics models.Metrics
	if err := s.store.LoadJSON(s.store.MetricsPath(c.Param("id")), &metrics); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics not found"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (s *Server) handleBaseline(c *gin.Context) {
	baseline, err := s.store.Baseline()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": baseline})
}

func (s *Server) handleRunReport(c *gin.Context) {
	path := s.store.ReportPath(c.Param("id"))
	if !s.store.Exists(path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.File(path)
}

// watchHistory polls the history file and broadcasts the refreshed run list
// whenever it changes. Polling keeps the watcher independent of which
// process wrote the update.
func (s *Server) watchHistory(ctx context.Context) {
	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastModTime time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(s.store.HistoryPath())
			if err != nil {
				continue
			}
			if !info.ModTime().After(lastModTime) {
				continue
			}
			lastModTime = info.ModTime()

			history, err := s.store.LoadHistory()
			if err != nil {
				logger.Errorf("Failed to reload history: %v", err)
				continue
			}
			payload, err := json.Marshal(history)
			if err != nil {
				continue
			}
			s.hub.Broadcast(payload)
		}
	}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go s.hub.Run(ctx)
	go s.watchHistory(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Infof("Dashboard listening on %s", httpServer.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

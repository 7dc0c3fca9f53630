// Package mcp exposes the refactoring engine as MCP tools: one read-only
// planning tool per verb, plus apply/inspect tools that execute stored
// plans. Planning never writes; only apply_plan touches disk.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamaar/reshape/internal/version"
	"github.com/mamaar/reshape/pkg/apply"
	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/lang/golang"
	"github.com/mamaar/reshape/pkg/lang/javascript"
	"github.com/mamaar/reshape/pkg/lang/python"
	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/plan"
	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/types"
	"github.com/mamaar/reshape/pkg/watch"
)

// Server holds the shared state behind the MCP tool handlers: the open
// project, its plan generator and executor, the checksum cache fed by the
// filesystem watcher, and the store of generated plans awaiting apply.
type Server struct {
	mu        sync.RWMutex
	project   *project.Project
	generator *plan.Generator
	executor  *apply.Executor
	cache     *watch.ChecksumCache
	watcher   *watch.Watcher
	cancel    context.CancelFunc
	oracle    oracle.Client
	logger    *slog.Logger

	plansMu sync.Mutex
	plans   map[string]*types.EditPlan
}

// NewServer creates a Server with no project open. The oracle client may be
// nil; plan generation then always uses the native path.
func NewServer(oracleClient oracle.Client, logger *slog.Logger) *Server {
	return &Server{
		oracle: oracleClient,
		logger: logger,
		plans:  make(map[string]*types.EditPlan),
	}
}

// Version reports the server build version.
func Version() string { return version.Version }

func registry(logger *slog.Logger) *lang.Registry {
	return lang.NewRegistry(
		golang.New(logger),
		python.New(logger),
		javascript.New(logger),
	)
}

// OpenProject opens (or reopens) the project at path and starts the
// background watcher that keeps the checksum cache honest.
func (s *Server) OpenProject(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}

	s.logger.Info("opening project", "path", path)
	p, err := project.Open(path, registry(s.logger), s.logger)
	if err != nil {
		return err
	}
	s.project = p
	s.generator = plan.NewGenerator(p, s.oracle, s.logger)
	s.cache = watch.NewChecksumCache(s.logger)
	s.executor = apply.NewExecutor(p, apply.NewLockManager(), s.logger)
	s.executor.SetInvalidator(s.cache)
	s.executor.SetChecksumSource(s.cache)

	s.plansMu.Lock()
	s.plans = make(map[string]*types.EditPlan)
	s.plansMu.Unlock()

	w, err := watch.NewWatcher(p.Root(), 200*time.Millisecond, s.logger)
	if err != nil {
		s.logger.Warn("watcher unavailable, checksum cache will not auto-invalidate", "err", err)
		return nil
	}
	s.watcher = w

	watchCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ch := make(chan []watch.ChangeEvent, 4)
	go func() {
		if err := w.Run(watchCtx, ch); err != nil && watchCtx.Err() == nil {
			s.logger.Error("watcher error", "err", err)
		}
	}()
	go func() {
		for events := range ch {
			s.cache.HandleChanges(events)
		}
	}()

	return nil
}

// Generator returns the plan generator for the open project.
func (s *Server) Generator() (*plan.Generator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generator == nil {
		return nil, fmt.Errorf("no project open: call open_project first")
	}
	return s.generator, nil
}

// Executor returns the apply executor for the open project.
func (s *Server) Executor() (*apply.Executor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.executor == nil {
		return nil, fmt.Errorf("no project open: call open_project first")
	}
	return s.executor, nil
}

// Project returns the open project.
func (s *Server) Project() (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil, fmt.Errorf("no project open: call open_project first")
	}
	return s.project, nil
}

// StorePlan saves a generated plan and returns its id for later apply.
func (s *Server) StorePlan(p *types.EditPlan) string {
	id := uuid.NewString()
	s.plansMu.Lock()
	defer s.plansMu.Unlock()
	s.plans[id] = p
	return id
}

// PlanByID returns a stored plan.
func (s *Server) PlanByID(id string) (*types.EditPlan, error) {
	s.plansMu.Lock()
	defer s.plansMu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, types.NewResourceNotFound("plan", id)
	}
	return p, nil
}

// DropPlan removes a stored plan, typically after a successful apply.
func (s *Server) DropPlan(id string) {
	s.plansMu.Lock()
	defer s.plansMu.Unlock()
	delete(s.plans, id)
}

// Close stops the watcher and releases resources.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
}

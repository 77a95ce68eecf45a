// Package service implements the application operations behind the HTTP
// transport: session lifecycle, event ingestion, diagnosis, and patch
// application.
package service

import (
	"errors"

	"github.com/epilog-dev/epilog/internal/config"
	"github.com/epilog-dev/epilog/internal/diagnose"
	"github.com/epilog-dev/epilog/internal/patch"
	"github.com/epilog-dev/epilog/internal/policy"
	"github.com/epilog-dev/epilog/internal/store"
)

// Typed conditions surfaced to the transport layer.
var (
	// ErrInvalidEventType rejects ingestion of an event kind outside the
	// fixed vocabulary.
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrInvalidScreenshot rejects undecodable base64 screenshot data.
	ErrInvalidScreenshot = errors.New("invalid base64 screenshot data")
	// ErrOracleNotConfigured indicates the diagnosis oracle has no
	// credential; a service misconfiguration, distinct from oracle failure.
	ErrOracleNotConfigured = errors.New("diagnosis oracle not configured")
	// ErrProjectRootNotConfigured indicates patch application is disabled.
	ErrProjectRootNotConfigured = errors.New("project root not configured")
)

// Service bundles the store and the diagnosis/patch collaborators.
type Service struct {
	store        store.Store
	engine       *diagnose.Engine
	applier      *patch.Applier
	policyEngine *policy.Engine
	config       *config.Config
}

// New creates a service. engine may be nil when no oracle is configured.
func New(st store.Store, engine *diagnose.Engine, applier *patch.Applier, policyEngine *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:        st,
		engine:       engine,
		applier:      applier,
		policyEngine: policyEngine,
		config:       cfg,
	}
}

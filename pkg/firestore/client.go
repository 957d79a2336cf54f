// Copyright 2025 Certen Protocol
//
// Firestore connection bootstrap: wraps the Firebase Admin SDK client
// used by the alternate NoSQL-backed vertex/changeset stores in this
// package. Kept deliberately thin; document-shape concerns live in
// vertex_store.go and changeset_store.go.

package firestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps a Firestore client, falling back to a no-op mode when
// disabled so callers never have to branch on configuration.
type Client struct {
	app       *firebase.App
	firestore *gcpfirestore.Client
	projectID string
	logger    hclog.Logger
	enabled   bool
	mu        sync.RWMutex
}

// ClientConfig holds configuration for the Firestore client.
type ClientConfig struct {
	// ProjectID is the Firebase/GCP project ID.
	ProjectID string

	// CredentialsFile is the path to the service account JSON file.
	// If empty, uses GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string

	// Enabled controls whether Firestore operations are actually
	// performed. If false, all operations are no-ops.
	Enabled bool

	Logger hclog.Logger
}

// DefaultConfig returns a ClientConfig populated from environment
// variables.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Enabled:         getEnvBool("FIRESTORE_ENABLED", false),
		Logger:          hclog.NewNullLogger(),
	}
}

// NewClient creates a Firestore client. When cfg.Enabled is false, the
// returned client is a no-op: every Store method built on top of it
// returns zero values rather than dialing out.
func NewClient(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	client := &Client{
		projectID: cfg.ProjectID,
		logger:    cfg.Logger,
		enabled:   cfg.Enabled,
	}

	if !cfg.Enabled {
		cfg.Logger.Info("firestore backend disabled, running in no-op mode")
		return client, nil
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required when firestore is enabled")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	client.app = app
	client.firestore = firestoreClient
	cfg.Logger.Info("firestore client initialized", "project_id", cfg.ProjectID)
	return client, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}

func (c *Client) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

func (c *Client) Collection(path string) *gcpfirestore.CollectionRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Collection(path)
}

func (c *Client) Doc(path string) *gcpfirestore.DocumentRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Doc(path)
}

func (c *Client) Batch() *gcpfirestore.WriteBatch {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Batch()
}

func (c *Client) RunTransaction(ctx context.Context, f func(context.Context, *gcpfirestore.Transaction) error) error {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.RunTransaction(ctx, f)
}

func (c *Client) Health(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("firestore client not initialized")
	}
	_, err := c.firestore.Collection("_health_check").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore health check: %w", err)
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}

package tenant

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/bcrypt"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/platform/sentinel"
	"maplecase/pkg/requestcontext"
)

var tenantsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "maplecase_tenants_created_total",
	Help: "Tenants provisioned.",
})

// Service provisions tenants and verifies their API credentials.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds the tenant service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create provisions a tenant and returns it with the plaintext API
// secret. The secret is shown exactly once; only its bcrypt hash is stored.
func (s *Service) Create(ctx context.Context, name, slug string) (*Tenant, string, error) {
	if err := ValidateNew(name, slug); err != nil {
		return nil, "", err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "generate tenant secret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "hash tenant secret")
	}

	now := requestcontext.Now(ctx).UTC()
	t := &Tenant{
		ID:         domain.NewTenantID(),
		Name:       name,
		Slug:       slug,
		SecretHash: string(hash),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", dErrors.Newf(dErrors.CodeConflict, "tenant slug %q already exists", slug)
		}
		return nil, "", err
	}

	tenantsCreated.Inc()
	s.logger.InfoContext(ctx, "tenant created", "tenant_id", t.ID, "slug", t.Slug)
	return t, secret, nil
}

// Authenticate verifies a slug and secret pair and returns the tenant.
// Inactive tenants are rejected even with valid credentials.
func (s *Service) Authenticate(ctx context.Context, slug, secret string) (*Tenant, error) {
	t, err := s.store.GetBySlug(ctx, slug)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown tenant or bad credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(t.SecretHash), []byte(secret)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown tenant or bad credentials")
	}
	if !t.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "tenant is deactivated")
	}
	return t, nil
}

// Get returns the tenant by ID.
func (s *Service) Get(ctx context.Context, id domain.TenantID) (*Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return t, err
}

// Deactivate suspends the tenant. Evaluation requests for its cases are
// rejected at authentication from then on.
func (s *Service) Deactivate(ctx context.Context, id domain.TenantID) error {
	return s.setActive(ctx, id, false)
}

// Reactivate restores a suspended tenant.
func (s *Service) Reactivate(ctx context.Context, id domain.TenantID) error {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id domain.TenantID, active bool) error {
	err := s.store.SetActive(ctx, id, active)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err == nil {
		s.logger.InfoContext(ctx, "tenant active flag changed", "tenant_id", id, "active", active)
	}
	return err
}

func generateSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

package v1

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nhudang/user-aggregator/internal/core/domain"
	"github.com/nhudang/user-aggregator/middleware"
)

var usersLoaded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "users_loaded_total",
	Help: "Total number of user documents persisted by /load invocations",
})

// UserService orchestrates the aggregation pipeline and the persistence
// gateway. It owns no connection state; the repository is injected.
type UserService struct {
	repo       domain.UserRepository
	aggregator *Aggregator
	userLimit  int
}

// NewUserService creates the user service. userLimit is how many users one
// Load call pulls from upstream; values below 1 fall back to 10.
func NewUserService(repo domain.UserRepository, aggregator *Aggregator, userLimit int) *UserService {
	if userLimit < 1 {
		userLimit = 10
	}
	return &UserService{
		repo:       repo,
		aggregator: aggregator,
		userLimit:  userLimit,
	}
}

// Load assembles the configured number of users from upstream and upserts
// each resulting document. Assembly is all-or-nothing: on failure nothing is
// persisted. Upserts run sequentially in assembled order, which also makes
// the last write win when one batch carries duplicate ids.
func (s *UserService) Load(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "users.load", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.limit", s.userLimit),
	))
	defer span.End()

	users, err := s.aggregator.Assemble(ctx, s.userLimit)
	if err != nil {
		span.RecordError(err)
		return err
	}

	for _, user := range users {
		doc, err := json.Marshal(user)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("marshal user %d: %w", user.ID, err)
		}
		if err := s.repo.Upsert(ctx, user.ID, doc); err != nil {
			span.RecordError(err)
			return err
		}
		usersLoaded.Inc()
	}

	span.SetAttributes(attribute.Int("users.persisted", len(users)))
	return nil
}

// GetUser returns the stored document for id.
func (s *UserService) GetUser(ctx context.Context, id int64) ([]byte, error) {
	ctx, span := middleware.StartSpan(ctx, "user.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("user.id", id),
	))
	defer span.End()

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetAttributes(attribute.Bool("user.found", false))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("user.found", true))
	return doc, nil
}

// CreateUser validates a raw JSON payload against the document shape and
// inserts it. The payload is decoded generically so the contract's laxity
// survives: only key presence and container kinds are checked, and the
// document is stored as received (plus the posts-default normalization).
func (s *UserService) CreateUser(ctx context.Context, raw []byte) ([]byte, error) {
	ctx, span := middleware.StartSpan(ctx, "user.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	var candidate any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, domain.ValidationError("Invalid JSON body")
	}

	user, err := ValidateUser(candidate)
	if err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	id, err := extractUserID(user)
	if err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("request.valid", true), attribute.Int64("user.id", id))

	// Re-encode rather than store raw: validation may have defaulted posts.
	doc, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user %d: %w", id, err)
	}

	stored, err := s.repo.Create(ctx, id, doc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("user.created")
	return stored, nil
}

// DeleteUser removes the document for id, failing if it does not exist.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := middleware.StartSpan(ctx, "user.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("user.id", id),
	))
	defer span.End()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// DeleteAllUsers removes every stored document.
func (s *UserService) DeleteAllUsers(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "users.delete_all", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := s.repo.DeleteAll(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

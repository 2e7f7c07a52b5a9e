package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

// ErrInvalidPolicy wraps policy validation failures.
var ErrInvalidPolicy = errors.New("invalid SLA policy")

// Service is the management layer over stored policies. At most one
// policy is the default at a time; saving a new default demotes the
// previous one.
type Service struct {
	policies persistence.PolicyRepository
	validate *validator.Validate
}

func NewService(policies persistence.PolicyRepository) *Service {
	return &Service{
		policies: policies,
		validate: validator.New(),
	}
}

func (s *Service) FetchAll(ctx context.Context) ([]*models.SLAPolicy, error) {
	return s.policies.All(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) (*models.SLAPolicy, error) {
	return s.policies.ByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, policy *models.SLAPolicy) (*models.SLAPolicy, error) {
	if err := s.Validate(policy); err != nil {
		return nil, err
	}

	if policy.ID == "" {
		policy.ID = uuid.New().String()
	}

	now := time.Now()
	policy.CreatedAt = now
	policy.UpdatedAt = now

	if err := s.demoteCurrentDefault(ctx, policy); err != nil {
		return nil, err
	}

	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}

func (s *Service) Update(ctx context.Context, id string, policy *models.SLAPolicy) (*models.SLAPolicy, error) {
	existing, err := s.policies.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(policy); err != nil {
		return nil, err
	}

	policy.ID = id
	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = time.Now()

	if err := s.demoteCurrentDefault(ctx, policy); err != nil {
		return nil, err
	}

	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.policies.Delete(ctx, id)
}

// Validate checks a policy without saving it. A policy needs at least
// one priority with a non-zero target, and escalation thresholds must
// be ordered below 100 when set.
func (s *Service) Validate(policy *models.SLAPolicy) error {
	if err := s.validate.Struct(policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}

	hasTarget := false

	for _, targets := range policy.Targets {
		if targets.ResponseMinutes > 0 || targets.ResolutionMinutes > 0 {
			hasTarget = true

			break
		}
	}

	if !hasTarget {
		return fmt.Errorf("%w: policy needs at least one priority target", ErrInvalidPolicy)
	}

	level1 := policy.Level1Threshold()
	level2 := policy.Level2Threshold()

	if level1 <= 0 || level2 <= 0 || level1 >= 100 || level2 >= 100 {
		return fmt.Errorf("%w: escalation thresholds must be between 1 and 99", ErrInvalidPolicy)
	}

	if level1 >= level2 {
		return fmt.Errorf("%w: level 1 threshold must be below level 2", ErrInvalidPolicy)
	}

	return nil
}

// demoteCurrentDefault clears the default flag on any other policy
// when the incoming one claims it.
func (s *Service) demoteCurrentDefault(ctx context.Context, incoming *models.SLAPolicy) error {
	if !incoming.IsDefault {
		return nil
	}

	all, err := s.policies.All(ctx)
	if err != nil {
		return err
	}

	for _, other := range all {
		if other.ID == incoming.ID || !other.IsDefault {
			continue
		}

		other.IsDefault = false
		other.UpdatedAt = time.Now()

		if err := s.policies.Save(ctx, other); err != nil {
			return err
		}
	}

	return nil
}

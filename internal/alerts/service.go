package alerts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/internal/storage"
	"github.com/regwatch/regwatch/pkg/cel"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
	"github.com/regwatch/regwatch/pkg/metrics"
)

var regionPattern = regexp.MustCompile(`^[A-Z]{2}$`)

const maxEntityNameNormLen = 255

// Service is the injectable component constructed once at startup and
// passed down; it carries no package-level mutable state. Concurrent
// callers share one cache instance guarded internally by its own mutex.
type Service struct {
	gateway *storage.Gateway
	repo    *Repository
	cache   *RuleCache
	cel     *cel.Evaluator
	logger  logger.Logger
}

func NewService(gateway *storage.Gateway, repo *Repository, cache *RuleCache, celEvaluator *cel.Evaluator, log logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		repo:    repo,
		cache:   cache,
		cel:     celEvaluator,
		logger:  log,
	}
}

// CreateInput is the validated shape of a create-alert request.
type CreateInput struct {
	UserID         int64
	EntityNameNorm *string
	Region         *string
	Expression     *string
}

// Create validates the request, enforces the per-plan quota, and
// inserts the rule — quota count and insert run on the same transaction
// to close the TOCTOU window two concurrent creates would otherwise open.
func (s *Service) Create(ctx context.Context, in CreateInput) (*AlertRule, error) {
	if in.UserID <= 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "user_id must be a positive integer")
	}
	if in.EntityNameNorm == nil && in.Region == nil {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "at least one of entity_name_norm or region is required")
	}
	if in.EntityNameNorm != nil && len(*in.EntityNameNorm) > maxEntityNameNormLen {
		return nil, pkgerrors.ErrValidation.WithDetail("message", fmt.Sprintf("entity_name_norm exceeds %d characters", maxEntityNameNormLen))
	}
	if in.Region != nil && !regionPattern.MatchString(*in.Region) {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "region must match ^[A-Z]{2}$")
	}
	if in.Expression != nil && strings.TrimSpace(*in.Expression) == "" {
		in.Expression = nil
	}
	if in.Expression != nil {
		if err := s.cel.ValidateExpression(*in.Expression); err != nil {
			return nil, pkgerrors.ErrValidation.WithCause(err).WithDetail("message", "expression does not compile to a boolean predicate")
		}
	}

	var rule *AlertRule
	err := s.gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		plan, err := s.repo.GetUserPlan(ctx, h, in.UserID)
		if err != nil {
			return err
		}

		if in.Expression != nil && plan != "team" {
			return pkgerrors.ErrValidation.WithDetail("message", "expression is only available on the team plan")
		}

		limit := PlanLimit(plan)
		if limit >= 0 {
			count, err := s.repo.CountRules(ctx, h, in.UserID)
			if err != nil {
				return err
			}
			if count >= limit {
				metrics.IncAlertRuleQuotaRejection(plan)
				return pkgerrors.ErrBusinessLogic.WithDetail("message", fmt.Sprintf("plan %q allows at most %d alert rules (currently %d)", plan, limit, count))
			}
		}

		rule = &AlertRule{
			UserID:         in.UserID,
			EntityNameNorm: in.EntityNameNorm,
			Region:         in.Region,
			Expression:     in.Expression,
		}
		return s.repo.Create(ctx, h, rule)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(in.UserID)
	metrics.SetAlertRuleCacheSize(s.cache.Size())
	return rule, nil
}

// Delete enforces ownership: not-found if the rule doesn't exist,
// authorization failure if it belongs to a different user.
func (s *Service) Delete(ctx context.Context, ruleID int64, userID int64) error {
	return s.gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		rule, err := s.repo.Get(ctx, h, ruleID)
		if err != nil {
			return err
		}
		if rule.UserID != userID {
			return pkgerrors.ErrAuthorization.WithDetail("message", "alert rule is owned by another user")
		}
		if err := s.repo.Delete(ctx, h, ruleID); err != nil {
			return err
		}
		s.cache.Invalidate(userID)
		return nil
	})
}

// ListByUser serves from the cache when fresh; on a miss it reloads
// from the database and repopulates the cache.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]AlertRule, error) {
	if rules, ok := s.cache.Get(userID); ok {
		return rules, nil
	}

	rules, err := s.repo.ListByUser(ctx, s.gateway.Handle(), userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(userID, rules)
	metrics.SetAlertRuleCacheSize(s.cache.Size())
	return rules, nil
}

// Stats reports the user's current rule count against their plan limit.
type Stats struct {
	Plan      string `json:"plan"`
	RuleCount int    `json:"ruleCount"`
	Limit     int    `json:"limit"`
}

func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	h := s.gateway.Handle()
	plan, err := s.repo.GetUserPlan(ctx, h, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountRules(ctx, h, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{Plan: plan, RuleCount: count, Limit: PlanLimit(plan)}, nil
}

// Fanout is invoked by the ingestion engine for every inserted or
// content-changed record, on the same transactional handle as the
// triggering upsert. A missing record is logged and reported as zero
// matches rather than failing the caller.
func (s *Service) Fanout(ctx context.Context, h storage.Handle, recordID int64, actionType string) (FanoutResult, error) {
	fields, found, err := s.repo.GetRecordFields(ctx, h, recordID)
	if err != nil {
		return FanoutResult{}, err
	}
	if !found {
		s.logger.Warnw("fan-out skipped: record not found", "record_id", recordID)
		return FanoutResult{}, nil
	}

	candidates, err := s.repo.MatchingRules(ctx, h, fields.EntityNameNorm, fields.Region)
	if err != nil {
		return FanoutResult{}, err
	}

	var matched []AlertRule
	for _, rule := range candidates {
		if rule.Expression == nil {
			matched = append(matched, rule)
			continue
		}

		ok, err := s.cel.Evaluate(ctx, *rule.Expression, cel.RecordVars{
			RecordID:       fields.RecordIDExt,
			SourceKey:      fields.SourceKey,
			Region:         fields.Region,
			EntityNameNorm: fields.EntityNameNorm,
			Status:         fields.Status,
		})
		if err != nil {
			s.logger.Errorw("CEL predicate evaluation failed, excluding rule from this fan-out", "rule_id", rule.ID, "error", err)
			continue
		}
		if ok {
			matched = append(matched, rule)
		}
	}

	if len(matched) == 0 {
		return FanoutResult{}, nil
	}

	ruleIDs := make([]int64, len(matched))
	for i, rule := range matched {
		ruleIDs[i] = rule.ID
	}

	if err := s.repo.AppendLogs(ctx, h, recordID, actionType, ruleIDs); err != nil {
		return FanoutResult{}, err
	}

	metrics.IncAlertFanoutTriggered(actionType, len(ruleIDs))
	return FanoutResult{Triggered: len(ruleIDs), RuleIDs: ruleIDs}, nil
}

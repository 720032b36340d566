package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/domain"
)

// Policy rows: role, resource, action. ADMIN inherits everything USER can
// do via the grouping rule and adds the admin surface on top.
var defaultPolicies = [][]string{
	{"USER", "leave", "create"},
	{"USER", "leave", "read"},
	{"USER", "leave", "update"},
	{"ADMIN", "leave_admin", "read"},
	{"ADMIN", "leave_admin", "decide"},
	{"ADMIN", "leave_admin", "update"},
	{"ADMIN", "leave_admin", "delete"},
}

var defaultGroupings = [][]string{
	{"ADMIN", "USER"},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac")
	}

	s := &service{enforcer: enforcer, logger: l}
	if err := s.loadPolicies(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *service) loadPolicies() error {
	s.enforcer.ClearPolicy()

	for _, g := range defaultGroupings {
		if _, err := s.enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	for _, p := range defaultPolicies {
		if _, err := s.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	s.logger.Info("rbac policies loaded",
		zap.Int("policies", len(defaultPolicies)),
		zap.Int("groupings", len(defaultGroupings)),
	)
	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

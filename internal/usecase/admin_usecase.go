package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/finovo/bankcore/internal/domain"
)

// AdminUseCase backs the staff console.
type AdminUseCase struct {
	stats     StatsRepository
	users     *UserUseCase
	auditRepo AuditRepository
	idGen     IDGenerator
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(stats StatsRepository, users *UserUseCase, auditRepo AuditRepository, idGen IDGenerator) *AdminUseCase {
	return &AdminUseCase{
		stats:     stats,
		users:     users,
		auditRepo: auditRepo,
		idGen:     idGen,
	}
}

// Stats is the system overview shown to staff.
type Stats struct {
	Users                int64
	Accounts             int64
	BalancesByCurrency   map[string]decimal.Decimal
	TransactionsByStatus map[domain.Status]int64
	PendingVolume        decimal.Decimal
	GeneratedAt          time.Time
}

// Stats runs the aggregate queries concurrently.
func (uc *AdminUseCase) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{GeneratedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := uc.stats.CountUsers(gctx)
		s.Users = n
		return err
	})
	g.Go(func() error {
		n, err := uc.stats.CountAccounts(gctx)
		s.Accounts = n
		return err
	})
	g.Go(func() error {
		m, err := uc.stats.BalancesByCurrency(gctx)
		s.BalancesByCurrency = m
		return err
	})
	g.Go(func() error {
		m, err := uc.stats.TransactionsByStatus(gctx)
		s.TransactionsByStatus = m
		return err
	})
	g.Go(func() error {
		v, err := uc.stats.PendingVolume(gctx)
		s.PendingVolume = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// ListUsers lists users for staff.
func (uc *AdminUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return uc.users.ListUsers(ctx, limit, offset)
}

// AdminUpdateUserInput represents a staff change to a user's access.
type AdminUpdateUserInput struct {
	UserID string
	Role   *domain.Role
	Active *bool
}

// UpdateUser changes a user's role or active flag. Only admins may do this,
// and an admin cannot deactivate or demote themselves.
func (uc *AdminUseCase) UpdateUser(ctx context.Context, actor *domain.User, input AdminUpdateUserInput) (*domain.User, error) {
	if actor == nil || !actor.Role.CanManageUsers() {
		return nil, domain.ErrInsufficientRole
	}
	if actor.ID == input.UserID && (input.Role != nil && *input.Role != actor.Role || input.Active != nil && !*input.Active) {
		return nil, domain.ErrForbidden
	}

	before, err := uc.users.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	updated, err := uc.users.UpdateUser(ctx, UpdateUserInput{
		ID:     input.UserID,
		Role:   input.Role,
		Active: input.Active,
	})
	if err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		log := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       actor.ID,
			Action:       string(domain.AuditActionUserUpdate),
			ResourceType: "user",
			ResourceID:   updated.ID,
			BeforeState:  domain.JSON{"role": before.Role, "active": before.Active},
			AfterState:   domain.JSON{"role": updated.Role, "active": updated.Active},
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now().UTC(),
		}
		if meta, ok := domain.RequestMetaFromContext(ctx); ok {
			log.IPAddress = meta.IPAddress
			log.UserAgent = meta.UserAgent
			log.RequestID = meta.RequestID
		}
		if err := uc.auditRepo.Create(ctx, log); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// RecentActivity returns the newest audit entries matching filter.
func (uc *AdminUseCase) RecentActivity(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.auditRepo.List(ctx, filter)
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/config"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/service"
)

// EnsureAdmin creates the default company and its admin user on start when
// ADMIN_EMAIL is configured.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, companies *service.CompanyService, users *service.UserService, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Admin(ctx, cfg, companies, users, logger)
		},
	})
}

// Admin is the body of EnsureAdmin. It is idempotent.
func Admin(ctx context.Context, cfg config.Config, companies *service.CompanyService, users *service.UserService, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		logger.Debug("admin bootstrap skipped")
		return nil
	}

	company, err := defaultCompany(ctx, cfg.DefaultCompanyName, companies)
	if err != nil {
		return err
	}

	created, err := users.Create(ctx, service.RegisterInput{
		Email:     email,
		Password:  cfg.AdminPassword,
		FirstName: "Admin",
		LastName:  "User",
		CompanyID: company.ID,
		Role:      domain.RoleAdmin,
	})
	if errors.Is(err, domain.Conflict(domain.CodeEmailExists, "")) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	logger.Info("bootstrap admin user created",
		zap.String("email", created.Email),
		zap.String("company_id", company.ID),
		zap.String("user_id", created.ID),
	)
	return nil
}

func defaultCompany(ctx context.Context, name string, companies *service.CompanyService) (domain.Company, error) {
	company, found, err := companies.GetBySlug(ctx, service.GenerateSlug(name))
	if err != nil {
		return domain.Company{}, fmt.Errorf("bootstrap company lookup: %w", err)
	}
	if found {
		return company, nil
	}
	company, err = companies.Create(ctx, service.CreateCompanyInput{Name: name})
	if err != nil {
		return domain.Company{}, fmt.Errorf("bootstrap create company: %w", err)
	}
	return company, nil
}

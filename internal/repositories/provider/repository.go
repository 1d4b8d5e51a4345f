// Package provider persists the payment-provider payout-terms catalog.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

var columns = []string{"id", "name", "card_types", "created_at", "updated_at"}

// Repository handles provider catalog persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new provider repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a provider, replacing the card types when the name already
// exists. Names are stored lowercased so lookups by file rows never miss on
// casing.
func (r *Repository) Create(ctx context.Context, req models.UpsertProviderRequest) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{"name": req.Name})

	now := time.Now().UTC()
	provider := &models.Provider{
		ID:        uuid.New().String(),
		Name:      strings.ToLower(strings.TrimSpace(req.Name)),
		CardTypes: database.NewJSONB(req.CardTypes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	ib := database.NewInsertBuilder().
		InsertInto("providers").
		Cols(columns...).
		Values(provider.ID, provider.Name, provider.CardTypes, provider.CreatedAt, provider.UpdatedAt)
	ub := ib.OnConflict("name")
	ub.Set(
		ub.Assign("card_types", database.Excluded("card_types")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create provider")
	}

	log.Info("Saved provider")
	// An update on conflict keeps the existing row's id.
	return r.GetByName(ctx, provider.Name)
}

// GetAll retrieves the whole provider catalog
func (r *Repository) GetAll(ctx context.Context) ([]models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.GetAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("providers")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var providers []models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list providers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return providers, nil
}

// GetByName retrieves one provider by its lowercased name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("providers")
	sb.Where(sb.Equal("name", strings.ToLower(strings.TrimSpace(name))))

	query, args := sb.Build()
	var provider models.Provider
	if err := r.db.GetContext(ctx, &provider, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", name))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get provider")
	}

	return &provider, nil
}

// Update replaces a provider's card types
func (r *Repository) Update(ctx context.Context, name string, req models.UpsertProviderRequest) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Update")
	defer span.End()

	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	existing.CardTypes = database.NewJSONB(req.CardTypes)
	existing.UpdatedAt = time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("providers")
	ub.Set(
		ub.Assign("card_types", existing.CardTypes),
		ub.Assign("updated_at", existing.UpdatedAt),
	)
	ub.Where(ub.Equal("id", existing.ID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name}).Error("Failed to update provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update provider")
	}

	return existing, nil
}

// AddCardType appends one card type to a provider's payout terms. The card
// type name is lowercased the same way provider names are.
func (r *Repository) AddCardType(ctx context.Context, name string, cardType models.CardType) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.AddCardType")
	defer span.End()

	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	cardType.Name = strings.ToLower(strings.TrimSpace(cardType.Name))
	existing.CardTypes.Data = append(existing.CardTypes.Data, cardType)
	existing.UpdatedAt = time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("providers")
	ub.Set(
		ub.Assign("card_types", existing.CardTypes),
		ub.Assign("updated_at", existing.UpdatedAt),
	)
	ub.Where(ub.Equal("id", existing.ID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name}).Error("Failed to add card type")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to add card type")
	}

	return existing, nil
}

// Delete removes one provider by name
func (r *Repository) Delete(ctx context.Context, name string) error {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Delete")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("providers")
	db.Where(db.Equal("name", strings.ToLower(strings.TrimSpace(name))))

	query, args := db.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name}).Error("Failed to delete provider")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete provider")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", name))
	}

	return nil
}

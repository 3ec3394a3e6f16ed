package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"bistro/infras/otel"
	"bistro/infras/postgres"
	"bistro/internal/domains/table/model"
	gDto "bistro/shared/dto"
	gRepo "bistro/shared/repository"
)

type Table interface {
	Insert(ctx context.Context, model model.Table) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Table, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Table, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Table]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Table {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Table](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// WithTx runs fn inside a write transaction, rolling back on error.
func (r *repositoryImpl) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	_, scope := r.otel.NewScope(ctx, model.EntityName, model.EntityName+".WithTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := r.db.Write.Beginx()
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back transaction")
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

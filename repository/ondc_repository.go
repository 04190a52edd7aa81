package repository

import (
	"context"
	"go-catalog-api/logger"
	"go-catalog-api/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type IOndcRepository interface {
	GetCategory(ctx context.Context, code string) (*model.OndcCategory, error)
	GetValueSets(ctx context.Context, codes ...string) (model.OndcValueSets, error)
}

type OndcRepository struct {
	DB *sqlx.DB
}

func NewOndcRepository(db *sqlx.DB) *OndcRepository {
	return &OndcRepository{DB: db}
}

func (r *OndcRepository) GetCategory(ctx context.Context, code string) (*model.OndcCategory, error) {
	c := &model.OndcCategory{}
	query := `SELECT code, title, description, required, properties FROM ondc_categories WHERE code = $1`
	err := r.DB.QueryRowxContext(ctx, query, code).
		Scan(&c.Code, &c.Title, &c.Description, pq.Array(&c.Required), &c.Properties)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// GetValueSets loads the enumerated values of the given category codes,
// grouped by code then attribute, in stored order.
func (r *OndcRepository) GetValueSets(ctx context.Context, codes ...string) (model.OndcValueSets, error) {
	var rows []model.OndcAttributeValue
	query := `
		SELECT category_code, attribute, value
		FROM ondc_attribute_values
		WHERE category_code = ANY($1)
		ORDER BY category_code, attribute, position, id`
	if err := r.DB.SelectContext(ctx, &rows, query, pq.Array(codes)); err != nil {
		logger.Log.WithError(err).WithField("codes", codes).Error("Failed to execute ondc value sets query")
		return nil, err
	}

	sets := make(model.OndcValueSets, len(codes))
	for _, row := range rows {
		attrs, ok := sets[row.CategoryCode]
		if !ok {
			attrs = map[string][]string{}
			sets[row.CategoryCode] = attrs
		}
		attrs[row.Attribute] = append(attrs[row.Attribute], row.Value)
	}
	return sets, nil
}

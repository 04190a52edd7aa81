package service

import (
	"context"
	"errors"
	"go-catalog-api/model"
	"go-catalog-api/repository"
	"strings"
	"unicode"
	"unicode/utf8"
)

// OndcProjector projects internal category-attribute records onto the ONDC
// field schema.
type OndcProjector struct {
	repo repository.IOndcRepository
}

func NewOndcProjector(repo repository.IOndcRepository) *OndcProjector {
	return &OndcProjector{repo: repo}
}

// titleCase upper-cases the first letter and turns underscores into spaces:
// "net_quantity" -> "Net quantity".
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// unionValues appends b to a, skipping duplicates and keeping first-seen order.
func unionValues(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func ondcFieldType(t string) string {
	switch t {
	case "number", "integer", "boolean", "array":
		return t
	default:
		return "string"
	}
}

func (p *OndcProjector) Project(ctx context.Context, code string) (*model.ChannelSchema, error) {
	category, err := p.repo.GetCategory(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSchemaNotFound
		}
		return nil, err
	}

	var sets model.OndcValueSets
	for _, prop := range category.Properties {
		if prop.IsEnum() {
			sets, err = p.repo.GetValueSets(ctx, model.CommonValueSet, category.Code)
			if err != nil {
				return nil, err
			}
			break
		}
	}

	required := make(map[string]struct{}, len(category.Required))
	for _, name := range category.Required {
		required[name] = struct{}{}
	}

	fields := make(model.FieldSet, 0, len(category.Properties))
	for _, prop := range category.Properties {
		_, isRequired := required[prop.Name]
		field := model.Field{
			Name:     prop.Name,
			Title:    titleCase(prop.Name),
			Type:     ondcFieldType(prop.Type),
			Required: isRequired,
		}
		if prop.IsEnum() {
			field.Enum = unionValues(sets[model.CommonValueSet][prop.Name], sets[category.Code][prop.Name])
			field.EnumNames = make([]string, len(field.Enum))
			for i, v := range field.Enum {
				field.EnumNames[i] = titleCase(v)
			}
		}
		fields = append(fields, field)
	}

	requiredList := append([]string{}, category.Required...)
	return &model.ChannelSchema{
		Channel:     model.ChannelONDC,
		Code:        category.Code,
		Title:       category.Title,
		Description: category.Description,
		Required:    requiredList,
		Attributes:  fields,
	}, nil
}

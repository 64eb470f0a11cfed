package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/storage/postgres"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// detailLayout binds a variant's columns to pointers into the variant, so
// the same list serves as scan destinations and insert arguments.
type detailLayout struct {
	table string
	cols  []string
	ptrs  []any
}

func tableFor(c domain.Category) (string, error) {
	switch c {
	case domain.CategoryEWaste:
		return postgres.TableEWaste, nil
	case domain.CategoryPlastic:
		return postgres.TablePlastic, nil
	case domain.CategoryStationary:
		return postgres.TableStationary, nil
	case domain.CategoryClothes:
		return postgres.TableClothes, nil
	case domain.CategoryFurniture:
		return postgres.TableFurniture, nil
	case domain.CategoryFood:
		return postgres.TableFood, nil
	case domain.CategoryOther:
		return postgres.TableOther, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, c)
}

func layoutOf(d domain.CategoryDetails) (detailLayout, error) {
	switch v := d.(type) {
	case *domain.EWasteDetails:
		return detailLayout{
			table: postgres.TableEWaste,
			cols:  []string{"brand", "model", "condition", "warranty", "quantity", "images", "donated", "amount"},
			ptrs:  []any{&v.Brand, &v.Model, &v.Condition, &v.Warranty, &v.Quantity, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.PlasticDetails:
		return detailLayout{
			table: postgres.TablePlastic,
			cols:  []string{"type", "weight", "recyclable", "images", "donated", "amount"},
			ptrs:  []any{&v.Type, &v.Weight, &v.Recyclable, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.StationaryDetails:
		return detailLayout{
			table: postgres.TableStationary,
			cols:  []string{"type", "quantity", "new", "images", "donated", "amount"},
			ptrs:  []any{&v.Type, &v.Quantity, &v.New, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.ClothesDetails:
		return detailLayout{
			table: postgres.TableClothes,
			cols:  []string{"size", "gender", "material", "condition", "quantity", "images", "donated", "amount"},
			ptrs:  []any{&v.Size, &v.Gender, &v.Material, &v.Condition, &v.Quantity, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.FurnitureDetails:
		return detailLayout{
			table: postgres.TableFurniture,
			cols:  []string{"type", "material", "condition", "dimensions", "images", "donated", "amount"},
			ptrs:  []any{&v.Type, &v.Material, &v.Condition, &v.Dimensions, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.FoodDetails:
		return detailLayout{
			table: postgres.TableFood,
			cols:  []string{"type", "expiry_date", "weight", "images", "donated", "amount"},
			ptrs:  []any{&v.Type, dateColumn{&v.ExpiryDate}, &v.Weight, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	case *domain.OtherDetails:
		return detailLayout{
			table: postgres.TableOther,
			cols:  []string{"details", "condition", "images", "donated", "amount"},
			ptrs:  []any{jsonColumn{&v.Details}, &v.Condition, jsonColumn{&v.Images}, &v.Donated, &v.Amount},
		}, nil
	}
	return detailLayout{}, fmt.Errorf("%w: details of type %T", domain.ErrUnsupportedCategory, d)
}

// args dereferences the layout pointers into query arguments.
func (l detailLayout) args() []any {
	out := make([]any, 0, len(l.ptrs))
	for _, p := range l.ptrs {
		switch v := p.(type) {
		case driver.Valuer:
			out = append(out, v)
		case *string:
			out = append(out, *v)
		case *bool:
			out = append(out, *v)
		case *int:
			out = append(out, *v)
		case *float64:
			out = append(out, *v)
		case **float64:
			out = append(out, *v)
		default:
			out = append(out, p)
		}
	}
	return out
}

// jsonColumn maps a Go slice onto a jsonb column.
type jsonColumn struct {
	dst any
}

func (j jsonColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(j.dst)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

func (j jsonColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, j.dst)
	case string:
		return json.Unmarshal([]byte(v), j.dst)
	}
	return fmt.Errorf("jsonb column: unsupported source %T", src)
}

// dateColumn stores an ISO-8601 string as a timestamptz.
type dateColumn struct {
	dst *string
}

func (d dateColumn) Value() (driver.Value, error) {
	t, err := validation.ParseISODate(*d.dst)
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}

func (d dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.dst = ""
	case time.Time:
		*d.dst = v.UTC().Format(time.RFC3339)
	case string:
		*d.dst = v
	case []byte:
		*d.dst = string(v)
	default:
		return fmt.Errorf("date column: unsupported source %T", src)
	}
	return nil
}

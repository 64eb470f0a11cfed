package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/reloop-app/reloop-backend/internal/validation"
)

// CategoryDetails is the category-specific record attached to a listing.
// The set of implementations is closed: one struct per Category.
type CategoryDetails interface {
	Category() Category
	Common() DetailCommon
	isCategoryDetails()
}

// DetailCommon holds the attributes every variant shares.
type DetailCommon struct {
	Images  []string
	Donated bool
	Amount  *float64
}

type EWasteDetails struct {
	Brand     string   `json:"brand" validate:"required,min=2"`
	Model     string   `json:"model" validate:"required,min=2"`
	Condition string   `json:"condition" validate:"required"`
	Warranty  bool     `json:"warranty"`
	Quantity  int      `json:"quantity" validate:"min=1"`
	Images    []string `json:"images" validate:"required,dive,url"`
	Donated   bool     `json:"donated"`
	Amount    *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type PlasticDetails struct {
	Type       string   `json:"type" validate:"required"`
	Weight     float64  `json:"weight" validate:"gt=0"`
	Recyclable bool     `json:"recyclable"`
	Images     []string `json:"images" validate:"required,dive,url"`
	Donated    bool     `json:"donated"`
	Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type StationaryDetails struct {
	Type     string   `json:"type" validate:"required"`
	Quantity int      `json:"quantity" validate:"min=1"`
	New      bool     `json:"new"`
	Images   []string `json:"images" validate:"required,dive,url"`
	Donated  bool     `json:"donated"`
	Amount   *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type ClothesDetails struct {
	Size      string   `json:"size" validate:"required"`
	Gender    string   `json:"gender" validate:"required"`
	Material  string   `json:"material" validate:"required"`
	Condition string   `json:"condition" validate:"required"`
	Quantity  int      `json:"quantity" validate:"min=1"`
	Images    []string `json:"images" validate:"required,dive,url"`
	Donated   bool     `json:"donated"`
	Amount    *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type FurnitureDetails struct {
	Type       string   `json:"type" validate:"required"`
	Material   string   `json:"material" validate:"required"`
	Condition  string   `json:"condition" validate:"required"`
	Dimensions string   `json:"dimensions" validate:"required"`
	Images     []string `json:"images" validate:"required,dive,url"`
	Donated    bool     `json:"donated"`
	Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type FoodDetails struct {
	Type       string   `json:"type" validate:"required"`
	ExpiryDate string   `json:"expiryDate" validate:"required,isodate"`
	Weight     float64  `json:"weight" validate:"gt=0"`
	Images     []string `json:"images" validate:"required,dive,url"`
	Donated    bool     `json:"donated"`
	Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type OtherDetails struct {
	Details   []string `json:"details" validate:"required,dive,min=1"`
	Condition string   `json:"condition" validate:"required"`
	Images    []string `json:"images" validate:"required,dive,url"`
	Donated   bool     `json:"donated"`
	Amount    *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

func (EWasteDetails) Category() Category     { return CategoryEWaste }
func (PlasticDetails) Category() Category    { return CategoryPlastic }
func (StationaryDetails) Category() Category { return CategoryStationary }
func (ClothesDetails) Category() Category    { return CategoryClothes }
func (FurnitureDetails) Category() Category  { return CategoryFurniture }
func (FoodDetails) Category() Category       { return CategoryFood }
func (OtherDetails) Category() Category      { return CategoryOther }

func (d EWasteDetails) Common() DetailCommon     { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d PlasticDetails) Common() DetailCommon    { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d StationaryDetails) Common() DetailCommon { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d ClothesDetails) Common() DetailCommon    { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d FurnitureDetails) Common() DetailCommon  { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d FoodDetails) Common() DetailCommon       { return DetailCommon{d.Images, d.Donated, d.Amount} }
func (d OtherDetails) Common() DetailCommon      { return DetailCommon{d.Images, d.Donated, d.Amount} }

func (EWasteDetails) isCategoryDetails()     {}
func (PlasticDetails) isCategoryDetails()    {}
func (StationaryDetails) isCategoryDetails() {}
func (ClothesDetails) isCategoryDetails()    {}
func (FurnitureDetails) isCategoryDetails()  {}
func (FoodDetails) isCategoryDetails()       {}
func (OtherDetails) isCategoryDetails()      {}

// NewDetails returns an empty variant for c.
func NewDetails(c Category) (CategoryDetails, error) {
	switch c {
	case CategoryEWaste:
		return &EWasteDetails{}, nil
	case CategoryPlastic:
		return &PlasticDetails{}, nil
	case CategoryStationary:
		return &StationaryDetails{}, nil
	case CategoryClothes:
		return &ClothesDetails{}, nil
	case CategoryFurniture:
		return &FurnitureDetails{}, nil
	case CategoryFood:
		return &FoodDetails{}, nil
	case CategoryOther:
		return &OtherDetails{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCategory, c)
}

// DecodeDetails parses raw into the variant for c and validates it. Field
// problems come back as *validation.Error with paths relative to the details
// object.
func DecodeDetails(c Category, raw json.RawMessage) (CategoryDetails, error) {
	d, err := NewDetails(c)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(raw, d); err != nil {
		verr := &validation.Error{}
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			verr.Add(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, kindName(typeErr.Type.Kind())))
		default:
			verr.Add("", "details must be a JSON object matching the "+string(c)+" schema")
		}
		return nil, verr
	}

	if err := validation.Struct(d); err != nil {
		return nil, err
	}
	return d, nil
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int64, reflect.Float64, reflect.Ptr:
		return "number"
	default:
		return k.String()
	}
}

// donatedItemsHaveNoPrice reports an amount on a donated item.
func donatedItemsHaveNoPrice(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(CategoryDetails)
	if !ok {
		return
	}
	if c := d.Common(); c.Donated && c.Amount != nil {
		sl.ReportError(c.Amount, "amount", "Amount", "excluded_with", "donated")
	}
}

func init() {
	validation.RegisterStructValidation(donatedItemsHaveNoPrice,
		EWasteDetails{}, PlasticDetails{}, StationaryDetails{}, ClothesDetails{},
		FurnitureDetails{}, FoodDetails{}, OtherDetails{},
	)
}

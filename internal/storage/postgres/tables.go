package postgres

import "github.com/lib/pq"

const (
	TableEWaste     = "e_waste"
	TablePlastic    = "plastic"
	TableStationary = "stationary"
	TableClothes    = "clothes"
	TableFurniture  = "furniture"
	TableFood       = "food"
	TableOther      = "other"
)

// CategoryTables holds every per-category detail table. Each is keyed by
// item_id referencing item_listings(id).
var CategoryTables = []string{
	TableEWaste,
	TablePlastic,
	TableStationary,
	TableClothes,
	TableFurniture,
	TableFood,
	TableOther,
}

// Ident quotes a table or column name for interpolation into SQL text.
func Ident(name string) string {
	return pq.QuoteIdentifier(name)
}

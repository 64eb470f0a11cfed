package repository

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/storage/postgres"
)

// whereBuilder collects AND-ed conditions, numbering "?" placeholders as it goes.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		b.args = append(b.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(b.args)), 1)
	}
	b.conds = append(b.conds, cond)
}

// next returns the placeholder for an argument appended after the conditions.
func (b *whereBuilder) next(arg any) string {
	b.args = append(b.args, arg)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) String() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func buildSearchWhere(q domain.SearchQuery) (*whereBuilder, error) {
	b := &whereBuilder{}

	if !q.IncludeClaimed {
		b.add("l.receiver_id IS NULL")
	}
	if q.Title != "" {
		b.add(`l.title ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(q.Title)+"%")
	}
	if q.Category != "" {
		b.add("l.category = ?", string(q.Category))
	}
	if q.ProducerID != "" {
		b.add("l.producer_id = ?", q.ProducerID)
	}
	if q.CreatedFrom != nil {
		b.add("l.created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		b.add("l.created_at <= ?", *q.CreatedTo)
	}

	if box := q.Box; box != nil {
		b.add("l.latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
		switch ranges := box.LongitudeRanges(); len(ranges) {
		case 0:
			b.add("l.longitude IS NOT NULL")
		case 1:
			b.add("l.longitude BETWEEN ? AND ?", ranges[0][0], ranges[0][1])
		default:
			b.add("(l.longitude BETWEEN ? AND ? OR l.longitude BETWEEN ? AND ?)",
				ranges[0][0], ranges[0][1], ranges[1][0], ranges[1][1])
		}
	}

	if len(q.Details) > 0 {
		cond, args, err := detailsExists(q.Category, q.Details)
		if err != nil {
			return nil, err
		}
		b.add(cond, args...)
	}

	return b, nil
}

// detailsExists renders equality filters on the category's variant table.
func detailsExists(c domain.Category, filters map[string]any) (string, []any, error) {
	table, err := tableFor(c)
	if err != nil {
		return "", nil, err
	}

	allowed := make(map[string]bool, len(domain.FilterableDetails[c]))
	for _, f := range domain.FilterableDetails[c] {
		allowed[f] = true
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		if !allowed[k] {
			return "", nil, fmt.Errorf("field %q is not filterable for %s", k, c)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	args := make([]any, 0, len(keys))
	sb.WriteString("EXISTS (SELECT 1 FROM " + postgres.Ident(table) + " d WHERE d.item_id = l.id")
	for _, k := range keys {
		sb.WriteString(" AND d." + postgres.Ident(k) + " = ?")
		args = append(args, filters[k])
	}
	sb.WriteString(")")
	return sb.String(), args, nil
}

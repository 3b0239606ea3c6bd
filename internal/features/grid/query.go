package grid

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FilterItem is one column filter from the grid's filter model.
type FilterItem struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type FilterModel struct {
	Items []FilterItem `json:"items"`
}

// Query is the listing request: pagination, sort and column filters.
type Query struct {
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	SortField string      `json:"sortField,omitempty"`
	SortOrder string      `json:"sortOrder,omitempty"`
	Filter    FilterModel `json:"filterModel"`
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// Values translates the query into upstream query parameters. Equality operators map to
// field=value, every other operator to field_<operator>=value. Items without a value are
// skipped unless the operator tests for emptiness.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SortField != "" {
		v.Set("sortField", q.SortField)
		order := strings.ToLower(q.SortOrder)
		if order != "desc" {
			order = "asc"
		}
		v.Set("sortOrder", order)
	}
	for _, item := range q.Filter.Items {
		if item.Field == "" {
			continue
		}
		op := item.Operator
		switch op {
		case "isEmpty", "isNotEmpty":
			v.Add(item.Field+"_"+op, "true")
			continue
		}
		value := FormatValue(item.Value)
		if value == "" {
			continue
		}
		switch op {
		case "", "equals", "is", "=":
			v.Add(item.Field, value)
		default:
			v.Add(item.Field+"_"+op, value)
		}
	}
	return v
}

// Normalize clamps pagination into range.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// ParseQuery reads page, pageSize, sortField, sortOrder and a JSON filterModel from the
// request's query string.
func ParseQuery(c *fiber.Ctx) (Query, error) {
	q := Query{
		Page:      c.QueryInt("page", 1),
		PageSize:  c.QueryInt("pageSize", DefaultPageSize),
		SortField: c.Query("sortField"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("filterModel"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.Filter); err != nil {
			return q, fmt.Errorf("invalid filterModel: %w", err)
		}
	}
	return q.Normalize(), nil
}

// FormatValue renders a filter or cell value the way the upstream API and exports expect.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, FormatValue(e))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	case map[string]any:
		if name, ok := x["name"]; ok {
			return FormatValue(name)
		}
		b, _ := json.Marshal(x)
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

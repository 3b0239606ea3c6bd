package grid

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryValues(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  url.Values
	}{
		{
			name:  "pagination only",
			query: Query{Page: 2, PageSize: 50},
			want:  url.Values{"page": {"2"}, "pageSize": {"50"}},
		},
		{
			name:  "equality operators use the bare field",
			query: Query{Filter: FilterModel{Items: []FilterItem{{Field: "state", Operator: "equals", Value: "Goa"}, {Field: "type", Operator: "is", Value: "coin"}}}},
			want:  url.Values{"state": {"Goa"}, "type": {"coin"}},
		},
		{
			name:  "other operators are suffixed",
			query: Query{Filter: FilterModel{Items: []FilterItem{{Field: "quantity", Operator: "gt", Value: float64(5)}, {Field: "school", Operator: "contains", Value: "Govt"}}}},
			want:  url.Values{"quantity_gt": {"5"}, "school_contains": {"Govt"}},
		},
		{
			name:  "empty values are skipped",
			query: Query{Filter: FilterModel{Items: []FilterItem{{Field: "state", Operator: "equals", Value: ""}, {Field: "district", Operator: "contains"}}}},
			want:  url.Values{},
		},
		{
			name:  "emptiness operators carry no value",
			query: Query{Filter: FilterModel{Items: []FilterItem{{Field: "schoolId", Operator: "isEmpty"}}}},
			want:  url.Values{"schoolId_isEmpty": {"true"}},
		},
		{
			name:  "sort order defaults to asc",
			query: Query{SortField: "createdAt", SortOrder: "sideways"},
			want:  url.Values{"sortField": {"createdAt"}, "sortOrder": {"asc"}},
		},
		{
			name:  "any-of values are comma joined",
			query: Query{Filter: FilterModel{Items: []FilterItem{{Field: "status", Operator: "isAnyOf", Value: []any{"active", "faulty"}}}}},
			want:  url.Values{"status_isAnyOf": {"active,faulty"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Values())
		})
	}
}

func TestQueryNormalize(t *testing.T) {
	q := Query{Page: 0, PageSize: 10000}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)

	q = Query{Page: 3}.Normalize()
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "12", FormatValue(float64(12)))
	assert.Equal(t, "12.5", FormatValue(12.5))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "Govt School", FormatValue(map[string]any{"id": 4.0, "name": "Govt School"}))
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	e := NewEngine()

	res, err := e.Query([]byte(`{"products": [{"id": 1, "name": "Laptop"}, {"id": 2, "name": "Book"}]}`),
		".products[].name", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"Laptop", "Book"}, res.Values)
	assert.Equal(t, 2, res.RawCount)
	assert.Empty(t, res.Errors)
}

func TestQueryDeduplicate(t *testing.T) {
	e := NewEngine()

	res, err := e.Query([]byte(`[1, 2, 1, 3, 2]`), ".[]", true, 0)
	require.NoError(t, err)
	assert.Len(t, res.Values, 3)
	assert.Equal(t, 5, res.RawCount)
}

func TestQueryMaxResults(t *testing.T) {
	e := NewEngine()

	res, err := e.Query([]byte(`[1, 2, 3, 4, 5]`), ".[]", false, 2)
	require.NoError(t, err)
	assert.Len(t, res.Values, 2)
}

func TestQueryInvalidExpression(t *testing.T) {
	e := NewEngine()

	_, err := e.Query([]byte(`{}`), ".[foo", false, 0)
	assert.Error(t, err)
}

func TestQueryMultiple(t *testing.T) {
	e := NewEngine()

	res, err := e.QueryMultiple([][]byte{
		[]byte(`{"id": 1}`),
		[]byte(`not json`),
		[]byte(`{"id": 3}`),
	}, ".id", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 3}, toInts(res.Values))
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "input 1")
}

func TestQueryTypeErrorCollected(t *testing.T) {
	e := NewEngine()

	res, err := e.Query([]byte(`"a string"`), ".foo", false, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Values)
	assert.NotEmpty(t, res.Errors)
}

// toInts normalizes gojq numeric outputs for comparison.
func toInts(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case float64:
			out[i] = int(n)
		case int:
			out[i] = n
		default:
			out[i] = v
		}
	}
	return out
}

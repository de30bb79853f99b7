package jike

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRecords builds n opaque records
func makeRecords(n int, prefix string) []json.RawMessage {
	records := make([]json.RawMessage, n)
	for i := range records {
		records[i] = json.RawMessage(fmt.Sprintf(`{"id":"%s-%d"}`, prefix, i))
	}
	return records
}

func TestPagesWalksUntilCursorExhausted(t *testing.T) {
	// Three pages of 20, 20, and 7 records; the last page carries no cursor
	responses := map[string]*ListPage{
		"":     {Data: makeRecords(20, "a"), LoadMoreKey: json.RawMessage(`"k1"`)},
		`"k1"`: {Data: makeRecords(20, "b"), LoadMoreKey: json.RawMessage(`"k2"`)},
		`"k2"`: {Data: makeRecords(7, "c")},
	}

	var cursorsSeen []string
	fetch := func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		cursorsSeen = append(cursorsSeen, string(cursor))
		page, ok := responses[string(cursor)]
		require.True(t, ok, "unexpected cursor %q", string(cursor))
		return page, nil
	}

	pages := NewPages(context.Background(), fetch, nil)

	records, err := pages.Collect()
	require.NoError(t, err)

	assert.Len(t, records, 47)
	assert.Equal(t, 3, pages.Calls(), "one call per page, no extra probe")
	assert.Equal(t, []string{"", `"k1"`, `"k2"`}, cursorsSeen, "cursors echoed verbatim")

	// Exhausted iterators stay exhausted
	assert.False(t, pages.Next())
	assert.Equal(t, 3, pages.Calls())
}

func TestPagesObjectCursorEchoedVerbatim(t *testing.T) {
	first := json.RawMessage(`{"lastId":"x","page":2}`)

	calls := 0
	fetch := func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		calls++
		if calls == 1 {
			assert.Nil(t, cursor)
			return &ListPage{Data: makeRecords(2, "a"), LoadMoreKey: first}, nil
		}
		assert.JSONEq(t, string(first), string(cursor))
		return &ListPage{Data: makeRecords(1, "b")}, nil
	}

	pages := NewPages(context.Background(), fetch, nil)
	records, err := pages.Collect()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestPagesNullCursorEndsWalk(t *testing.T) {
	fetch := func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return &ListPage{
			Data:        makeRecords(5, "only"),
			LoadMoreKey: json.RawMessage("null"),
		}, nil
	}

	pages := NewPages(context.Background(), fetch, nil)
	records, err := pages.Collect()
	require.NoError(t, err)

	assert.Len(t, records, 5)
	assert.Equal(t, 1, pages.Calls())
}

func TestPagesEmptyPageEndsWalkDespiteCursor(t *testing.T) {
	fetch := func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		// A pathological server that always hands out a cursor
		return &ListPage{LoadMoreKey: json.RawMessage(`"again"`)}, nil
	}

	pages := NewPages(context.Background(), fetch, nil)
	records, err := pages.Collect()
	require.NoError(t, err)

	assert.Empty(t, records)
	assert.Equal(t, 1, pages.Calls(), "an empty page must not loop forever")
}

func TestPagesErrorStopsWalk(t *testing.T) {
	fetch := func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		if cursor == nil {
			return &ListPage{Data: makeRecords(3, "a"), LoadMoreKey: json.RawMessage(`"k1"`)}, nil
		}
		return nil, fmt.Errorf("connection reset")
	}

	pages := NewPages(context.Background(), fetch, nil)

	require.True(t, pages.Next())
	assert.Len(t, pages.Page().Data, 3)

	assert.False(t, pages.Next())
	require.Error(t, pages.Err())

	// A failed iterator never issues further calls
	assert.False(t, pages.Next())
	assert.Equal(t, 2, pages.Calls())
}

func TestHasCursor(t *testing.T) {
	tests := []struct {
		name string
		key  json.RawMessage
		want bool
	}{
		{"nil", nil, false},
		{"empty", json.RawMessage(``), false},
		{"null", json.RawMessage(`null`), false},
		{"string", json.RawMessage(`"abc"`), true},
		{"object", json.RawMessage(`{"lastId":"x"}`), true},
		{"number", json.RawMessage(`42`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCursor(tt.key))
		})
	}
}

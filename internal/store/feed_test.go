package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeed_DispatchFiltersByTableKindAndColumn(t *testing.T) {
	f := NewFeed(nil, "table_changes", zap.NewNop())

	var inserts, all, other int
	f.Subscribe(Subscription{Table: "notifications", Column: "user_id", Value: "u1", Kind: EventInsert}, func(Change) { inserts++ })
	f.Subscribe(Subscription{Table: "notifications", Column: "user_id", Value: "u1", Kind: EventAll}, func(Change) { all++ })
	f.Subscribe(Subscription{Table: "notifications", Column: "user_id", Value: "u2"}, func(Change) { other++ })

	f.Dispatch([]byte(`{"table":"notifications","op":"INSERT","row":{"id":"n1","user_id":"u1"}}`))
	f.Dispatch([]byte(`{"table":"notifications","op":"UPDATE","row":{"id":"n1","user_id":"u1"}}`))
	f.Dispatch([]byte(`{"table":"orders","op":"INSERT","row":{"id":"o1","user_id":"u1"}}`))
	f.Dispatch([]byte(`not json`))

	assert.Equal(t, 1, inserts)
	assert.Equal(t, 2, all)
	assert.Equal(t, 0, other)
}

func TestFeed_Unsubscribe(t *testing.T) {
	f := NewFeed(nil, "table_changes", zap.NewNop())
	calls := 0
	unsubscribe := f.Subscribe(Subscription{Table: "orders"}, func(Change) { calls++ })

	f.Dispatch([]byte(`{"table":"orders","op":"DELETE","row":{"id":"o1"}}`))
	unsubscribe()
	unsubscribe()
	f.Dispatch([]byte(`{"table":"orders","op":"DELETE","row":{"id":"o1"}}`))

	assert.Equal(t, 1, calls)
}

func TestChange_Decode(t *testing.T) {
	f := NewFeed(nil, "table_changes", zap.NewNop())
	var got struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	f.Subscribe(Subscription{Table: "notifications", Kind: EventInsert}, func(c Change) {
		require.NoError(t, c.Decode(&got))
	})
	f.Dispatch([]byte(`{"table":"notifications","op":"INSERT","row":{"id":"n9","title":"Stock bas"}}`))
	assert.Equal(t, "n9", got.ID)
	assert.Equal(t, "Stock bas", got.Title)
}

func TestSubscription_Topic(t *testing.T) {
	s := Subscription{Table: "notifications", Column: "user_id", Value: "u1"}
	assert.Equal(t, "notifications:user_id=u1:*", s.Topic())
	s.Kind = EventInsert
	assert.Equal(t, "notifications:user_id=u1:INSERT", s.Topic())
}

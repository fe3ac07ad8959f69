package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeSetMergesInsertThenUpdate(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeInsert)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeUpdate)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeUpdate)

	events := cs.Notifications()
	assert.Len(t, events, 1)
	assert.Equal(t, ChangeInsert, events[0].Change)
}

func TestChangeSetInsertThenDeleteCancels(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeInsert)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeDelete)
	assert.Empty(t, cs.Notifications())
}

func TestChangeSetDeleteThenInsertBecomesUpdate(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeDelete)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeInsert)

	events := cs.Notifications()
	assert.Len(t, events, 1)
	assert.Equal(t, ChangeUpdate, events[0].Change)
}

func TestChangeSetUpdateThenDeleteIsDelete(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeUpdate)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeDelete)

	events := cs.Notifications()
	assert.Len(t, events, 1)
	assert.Equal(t, ChangeDelete, events[0].Change)
}

func TestChangeSetPreservesFirstMarkOrder(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 2, "file://media/Photo/2/b", ChangeUpdate)
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeUpdate)
	cs.Mark(EntityAsset, 2, "file://media/Photo/2/b", ChangeUpdate)

	events := cs.Notifications()
	assert.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(1), events[1].ID)
}

func TestChangeSetRecheckDropsPerEntityMarks(t *testing.T) {
	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeInsert)
	cs.MarkRecheck()
	cs.Mark(EntityAsset, 2, "file://media/Photo/2/b", ChangeInsert)

	assert.True(t, cs.Coarse())
	assert.Empty(t, cs.Notifications())
}

func TestNotifierDispatchesMergedEvents(t *testing.T) {
	n := NewNotifier(0, 0, nil, nil)
	var got []Notification
	n.Subscribe(ObserverFunc(func(ev Notification) { got = append(got, ev) }))

	cs := NewChangeSet()
	cs.Mark(EntityAsset, 1, "file://media/Photo/1/a", ChangeInsert)
	cs.Mark(EntityAlbum, 9, BuildAlbumURI(9), ChangeUpdate)
	n.Dispatch(context.Background(), cs)

	assert.Len(t, got, 2)
	assert.Equal(t, ChangeInsert, got[0].Change)
	assert.Equal(t, EntityAlbum, got[1].Kind)
}

func TestNotifierCoarseDispatchIsTwoRechecks(t *testing.T) {
	n := NewNotifier(0, 0, nil, nil)
	var got []Notification
	n.Subscribe(ObserverFunc(func(ev Notification) { got = append(got, ev) }))

	cs := NewChangeSet()
	cs.MarkRecheck()
	n.Dispatch(context.Background(), cs)

	assert.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, ChangeRecheck, ev.Change)
	}
	assert.Equal(t, PhotoURIPrefix, got[0].URI)
	assert.Equal(t, AlbumURIPrefix, got[1].URI)
}

func TestNotifierEmptySetIsSilent(t *testing.T) {
	n := NewNotifier(0, 0, nil, nil)
	calls := 0
	n.Subscribe(ObserverFunc(func(Notification) { calls++ }))

	n.Dispatch(context.Background(), NewChangeSet())
	n.Dispatch(context.Background(), nil)
	assert.Zero(t, calls)
}

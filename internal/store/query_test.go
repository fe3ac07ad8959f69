package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photostore/internal/models"
	"photostore/internal/test"
)

func TestListAlbums(t *testing.T) {
	st, _, _, tearDown := newTestStore(t)
	defer tearDown()

	albums, meta, err := st.ListAlbums(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Len(t, albums, 5)
	assert.Equal(t, int64(len(models.SystemAlbumSubtypes)), meta.TotalCount)
	assert.True(t, meta.HasNext)
}

func TestListAlbumAssetsPagesNewestFirst(t *testing.T) {
	st, db, _, tearDown := newTestStore(t)
	defer tearDown()
	ctx := context.Background()

	var inputs []AssetInput
	for i := 0; i < 7; i++ {
		inputs = append(inputs, AssetInput{
			Data:        fmt.Sprintf("/p/%d.jpg", i),
			Title:       fmt.Sprintf("%d", i),
			DisplayName: fmt.Sprintf("%d.jpg", i),
			MediaType:   models.MediaTypeImage,
			DateTaken:   int64(100 + i),
		})
	}
	_, err := st.CreateAssets(ctx, inputs)
	require.NoError(t, err)

	images := test.SystemAlbum(t, db, models.SubtypeImage)

	photos, meta, err := st.ListAlbumAssets(ctx, images.AlbumID, models.ViewDefault, 1, 3)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	assert.Equal(t, int64(106), photos[0].DateTaken)
	assert.Equal(t, int64(7), meta.TotalCount)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)

	photos, meta, err = st.ListAlbumAssets(ctx, images.AlbumID, models.ViewDefault, 3, 3)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, int64(100), photos[0].DateTaken)
	assert.False(t, meta.HasNext)
}

func TestListAlbumAssetsHiddenView(t *testing.T) {
	st, db, _, tearDown := newTestStore(t)
	defer tearDown()
	ctx := context.Background()

	ids, err := st.CreateAssets(ctx, []AssetInput{
		{Data: "/p/a.jpg", Title: "a", DisplayName: "a.jpg", MediaType: models.MediaTypeImage},
		{Data: "/p/b.jpg", Title: "b", DisplayName: "b.jpg", MediaType: models.MediaTypeImage},
	})
	require.NoError(t, err)
	require.NoError(t, st.HideAssets(ctx, ids[:1], true))

	images := test.SystemAlbum(t, db, models.SubtypeImage)

	visible, _, err := st.ListAlbumAssets(ctx, images.AlbumID, models.ViewDefault, 1, 10)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	hidden, _, err := st.ListAlbumAssets(ctx, images.AlbumID, models.ViewHidden, 1, 10)
	require.NoError(t, err)
	assert.Len(t, hidden, 1)
	assert.Equal(t, ids[0], hidden[0].FileID)
}

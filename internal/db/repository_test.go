package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return &DB{conn}, mock
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &Account{Username: "alice", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestAccountRepository_GetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM users WHERE email = \\$1").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_SetRefreshTokenHashClears(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE users SET refresh_token_hash").
		WithArgs(id, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRefreshTokenHash(context.Background(), id, ""))
}

func TestAccountRepository_SwapRefreshTokenHash(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE users SET refresh_token_hash").
		WithArgs(id, "old", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET refresh_token_hash").
		WithArgs(id, "old", "newer").
		WillReturnResult(sqlmock.NewResult(0, 0))

	swapped, err := repo.SwapRefreshTokenHash(context.Background(), id, "old", "new")
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.SwapRefreshTokenHash(context.Background(), id, "old", "newer")
	require.NoError(t, err)
	assert.False(t, swapped)
}

var videoColumns = []string{
	"id", "owner_id", "title", "description", "video_url", "video_key",
	"thumbnail_url", "thumbnail_key", "duration_seconds", "views", "is_published",
	"created_at", "updated_at", "u_id", "username", "full_name", "avatar_url",
}

func TestVideoRepository_ListFiltersAndSorts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVideoRepository(db)
	videoID, ownerID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM videos v WHERE v.title ILIKE \\$1").
		WithArgs("%cat%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("ORDER BY v.views ASC, v.id LIMIT \\$2 OFFSET \\$3").
		WithArgs("%cat%", 10, 10).
		WillReturnRows(sqlmock.NewRows(videoColumns).AddRow(
			videoID.String(), ownerID.String(), "cat video", "desc", "http://m/v", "videos/k",
			"", "", 12.5, 3, true, now, now, ownerID.String(), "alice", "Alice", "http://m/a",
		))

	videos, total, err := repo.List(context.Background(), VideoFilter{
		Query: "cat", SortBy: "views", Asc: true, Limit: 10, Offset: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, videos, 1)
	assert.Equal(t, videoID, videos[0].ID)
	assert.Equal(t, "alice", videos[0].Owner.Username)
}

func TestVideoRepository_ListUnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVideoRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM videos v$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("ORDER BY v.created_at DESC").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(videoColumns))

	videos, total, err := repo.List(context.Background(), VideoFilter{SortBy: "password_hash; --", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, videos)
	assert.NotNil(t, videos)
}

func TestVideoRepository_TogglePublishMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVideoRepository(db)

	mock.ExpectQuery("UPDATE videos SET is_published = NOT is_published").
		WillReturnRows(sqlmock.NewRows([]string{"is_published"}))

	_, err := repo.TogglePublish(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestPlaylistRepository_AddVideoDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlaylistRepository(db)
	playlistID, videoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM playlists WHERE id = \\$1 FOR UPDATE").
		WithArgs(playlistID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(playlistID.String()))
	mock.ExpectExec("INSERT INTO playlist_videos").
		WithArgs(playlistID, videoID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AddVideo(context.Background(), playlistID, videoID)
	assert.ErrorIs(t, err, ErrVideoAlreadyInPlaylist)
}

func TestPlaylistRepository_AddVideoAppends(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlaylistRepository(db)
	playlistID, videoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(playlistID.String()))
	mock.ExpectExec("INSERT INTO playlist_videos").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE playlists SET updated_at").
		WithArgs(playlistID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddVideo(context.Background(), playlistID, videoID))
}

func TestPlaylistRepository_RemoveAbsentVideo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlaylistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM playlist_videos").
		WillReturnRows(sqlmock.NewRows([]string{"position"}))
	mock.ExpectCommit()

	require.NoError(t, repo.RemoveVideo(context.Background(), uuid.New(), uuid.New()))
}

func TestPlaylistRepository_RemoveCompactsPositions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlaylistRepository(db)
	playlistID, videoID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM playlist_videos").
		WithArgs(playlistID, videoID).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectExec("SET position = position - 1").
		WithArgs(playlistID, 2).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE playlists SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RemoveVideo(context.Background(), playlistID, videoID))
}

func TestSubscriptionRepository_Toggle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)
	subscriber, channel := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM subscriptions").
		WithArgs(subscriber, channel).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM subscriptions").
		WithArgs(subscriber, channel).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	subscribed, err := repo.Toggle(context.Background(), subscriber, channel)
	require.NoError(t, err)
	assert.True(t, subscribed)

	subscribed, err = repo.Toggle(context.Background(), subscriber, channel)
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestSubscriptionRepository_ToggleRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM subscriptions").WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	_, err := repo.Toggle(context.Background(), uuid.New(), uuid.New())
	assert.EqualError(t, err, "conn reset")
}

func TestLikeRepository_ToggleVideoLike(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLikeRepository(db)
	video, account := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM likes WHERE video_id").
		WithArgs(video, account).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO likes").
		WithArgs(sqlmock.AnyArg(), video, account).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM likes WHERE video_id").
		WithArgs(video, account).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	liked, err := repo.ToggleVideoLike(context.Background(), video, account)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.ToggleVideoLike(context.Background(), video, account)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikeRepository_ToggleVideoLikeRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM likes").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO likes").WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	liked, err := repo.ToggleVideoLike(context.Background(), uuid.New(), uuid.New())
	assert.EqualError(t, err, "conn reset")
	assert.False(t, liked)
}

func TestDashboardRepository_EmptyChannel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("COALESCE\\(SUM\\(views\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"v", "views", "s", "l"}).AddRow(0, 0, 0, 0))

	stats, err := repo.ChannelStats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, ChannelStats{}, *stats)
}

func TestMigrate_UsesEmbeddedFS(t *testing.T) {
	db, _ := newMock(t)

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, conn *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	t.Cleanup(func() { gooseUpContext = orig })

	require.NoError(t, db.Migrate(context.Background()))
	assert.Equal(t, ".", gotDir)
}

package api

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*db.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[uuid.UUID]*db.Account)}
}

func (m *memAccounts) Create(ctx context.Context, a *db.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email || existing.Username == a.Username {
			return db.ErrAccountExists
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(ctx context.Context, id uuid.UUID) (*db.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, db.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*db.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrAccountNotFound
}

func (m *memAccounts) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email || a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAccounts) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return db.ErrAccountNotFound
	}
	a.RefreshTokenHash.String = hash
	a.RefreshTokenHash.Valid = hash != ""
	return nil
}

func (m *memAccounts) SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.RefreshTokenHash.String != oldHash {
		return false, nil
	}
	a.RefreshTokenHash.String = newHash
	return true, nil
}

func (m *memAccounts) Summary(ctx context.Context, id uuid.UUID) (*db.AccountSummary, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &db.AccountSummary{ID: a.ID, Username: a.Username, FullName: a.FullName, AvatarURL: a.AvatarURL}, nil
}

type memVideos struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*db.Video
	lastFilter db.VideoFilter
}

func newMemVideos() *memVideos {
	return &memVideos{byID: make(map[uuid.UUID]*db.Video)}
}

func (m *memVideos) Create(ctx context.Context, v *db.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.IsPublished = true
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	m.byID[v.ID] = &cp
	return nil
}

func (m *memVideos) GetByID(ctx context.Context, id uuid.UUID) (*db.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, db.ErrVideoNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVideos) List(ctx context.Context, f db.VideoFilter) ([]db.Video, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f

	var matched []db.Video
	for _, v := range m.byID {
		if f.OwnerID != uuid.Nil && v.OwnerID != f.OwnerID {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(f.Query)) {
			continue
		}
		matched = append(matched, *v)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if f.Offset >= total {
		return []db.Video{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

func (m *memVideos) Update(ctx context.Context, v *db.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[v.ID]; !ok {
		return db.ErrVideoNotFound
	}
	cp := *v
	m.byID[v.ID] = &cp
	return nil
}

func (m *memVideos) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return db.ErrVideoNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memVideos) TogglePublish(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return false, db.ErrVideoNotFound
	}
	v.IsPublished = !v.IsPublished
	return v.IsPublished, nil
}

func (m *memVideos) IncrementViews(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return db.ErrVideoNotFound
	}
	v.Views++
	return nil
}

func (m *memVideos) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}

// seed stores a video owned by ownerID, created age ago.
func (m *memVideos) seed(ownerID uuid.UUID, title string, age time.Duration) *db.Video {
	v := &db.Video{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: title + " description",
		VideoKey:    "videos/" + title,
		IsPublished: true,
		CreatedAt:   time.Now().Add(-age),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.byID[v.ID] = &cp
	return v
}

type memComments struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*db.Comment
}

func newMemComments() *memComments {
	return &memComments{byID: make(map[uuid.UUID]*db.Comment)}
}

func (m *memComments) Create(ctx context.Context, c *db.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memComments) GetByID(ctx context.Context, id uuid.UUID) (*db.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, db.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memComments) ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]db.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Comment
	for _, c := range m.byID {
		if c.VideoID == videoID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memComments) UpdateContent(ctx context.Context, c *db.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[c.ID]
	if !ok {
		return db.ErrCommentNotFound
	}
	existing.Content = c.Content
	return nil
}

func (m *memComments) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return db.ErrCommentNotFound
	}
	delete(m.byID, id)
	return nil
}

type memTweets struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*db.Tweet
}

func newMemTweets() *memTweets {
	return &memTweets{byID: make(map[uuid.UUID]*db.Tweet)}
}

func (m *memTweets) Create(ctx context.Context, t *db.Tweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTweets) GetByID(ctx context.Context, id uuid.UUID) (*db.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, db.ErrTweetNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTweets) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Tweet
	for _, t := range m.byID {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTweets) UpdateContent(ctx context.Context, t *db.Tweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[t.ID]
	if !ok {
		return db.ErrTweetNotFound
	}
	existing.Content = t.Content
	return nil
}

func (m *memTweets) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return db.ErrTweetNotFound
	}
	delete(m.byID, id)
	return nil
}

type memPlaylists struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*db.Playlist
	items  map[uuid.UUID][]uuid.UUID
	videos *memVideos
}

func newMemPlaylists(videos *memVideos) *memPlaylists {
	return &memPlaylists{
		byID:   make(map[uuid.UUID]*db.Playlist),
		items:  make(map[uuid.UUID][]uuid.UUID),
		videos: videos,
	}
}

func (m *memPlaylists) Create(ctx context.Context, p *db.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPlaylists) GetByID(ctx context.Context, id uuid.UUID) (*db.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, db.ErrPlaylistNotFound
	}
	cp := *p
	cp.VideoCount = len(m.items[id])
	return &cp, nil
}

func (m *memPlaylists) GetWithVideos(ctx context.Context, id uuid.UUID) (*db.Playlist, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	ids := append([]uuid.UUID(nil), m.items[id]...)
	m.mu.Unlock()

	p.Videos = []db.Video{}
	for _, videoID := range ids {
		if v, err := m.videos.GetByID(ctx, videoID); err == nil {
			p.Videos = append(p.Videos, *v)
		}
	}
	return p, nil
}

func (m *memPlaylists) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Playlist
	for _, p := range m.byID {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPlaylists) Update(ctx context.Context, p *db.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return db.ErrPlaylistNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPlaylists) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return db.ErrPlaylistNotFound
	}
	delete(m.byID, id)
	delete(m.items, id)
	return nil
}

func (m *memPlaylists) AddVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[playlistID]; !ok {
		return db.ErrPlaylistNotFound
	}
	for _, id := range m.items[playlistID] {
		if id == videoID {
			return db.ErrVideoAlreadyInPlaylist
		}
	}
	m.items[playlistID] = append(m.items[playlistID], videoID)
	return nil
}

func (m *memPlaylists) RemoveVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[playlistID]; !ok {
		return db.ErrPlaylistNotFound
	}
	kept := m.items[playlistID][:0]
	for _, id := range m.items[playlistID] {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	m.items[playlistID] = kept
	return nil
}

type subscriptionKey struct{ subscriber, channel uuid.UUID }

type memSubscriptions struct {
	mu   sync.Mutex
	subs map[subscriptionKey]time.Time
}

func newMemSubscriptions() *memSubscriptions {
	return &memSubscriptions{subs: make(map[subscriptionKey]time.Time)}
}

func (m *memSubscriptions) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subscriptionKey{subscriberID, channelID}
	if _, ok := m.subs[key]; ok {
		delete(m.subs, key)
		return false, nil
	}
	m.subs[key] = time.Now()
	return true, nil
}

func (m *memSubscriptions) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]db.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Subscription
	for key, at := range m.subs {
		if key.channel == channelID {
			out = append(out, db.Subscription{ID: uuid.New(), Account: db.AccountSummary{ID: key.subscriber}, SubscribedAt: at})
		}
	}
	return out, nil
}

func (m *memSubscriptions) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]db.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Subscription
	for key, at := range m.subs {
		if key.subscriber == subscriberID {
			out = append(out, db.Subscription{ID: uuid.New(), Account: db.AccountSummary{ID: key.channel}, SubscribedAt: at})
		}
	}
	return out, nil
}

type memLikes struct {
	mu    sync.Mutex
	liked map[[2]uuid.UUID]bool
}

func (m *memLikes) ToggleVideoLike(ctx context.Context, videoID, accountID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liked == nil {
		m.liked = make(map[[2]uuid.UUID]bool)
	}
	key := [2]uuid.UUID{videoID, accountID}
	m.liked[key] = !m.liked[key]
	return m.liked[key], nil
}

type countingStats struct {
	mu    sync.Mutex
	calls int
	stats db.ChannelStats
}

func (s *countingStats) ChannelStats(ctx context.Context, channelID uuid.UUID) (*db.ChannelStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	cp := s.stats
	return &cp, nil
}

func (s *countingStats) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type notification struct {
	channelID uuid.UUID
	eventType string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) ChannelActivity(ctx context.Context, channelID uuid.UUID, eventType string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{channelID: channelID, eventType: eventType})
}

func (n *recordingNotifier) recorded() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.events...)
}

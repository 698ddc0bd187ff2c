package api

import (
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	apperrors "github.com/videotube/backend/internal/errors"
)

const prefix = "/api/v1"

// Handlers bundles everything the router mounts. Ops handlers that are nil
// are simply not mounted.
type Handlers struct {
	Auth          *auth.Handlers
	Videos        *VideoHandlers
	Comments      *CommentHandlers
	Tweets        *TweetHandlers
	Playlists     *PlaylistHandlers
	Subscriptions *SubscriptionHandlers
	Dashboard     *DashboardHandlers
	Likes         *LikeHandlers

	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc
	Metrics   http.Handler
	Websocket http.HandlerFunc
}

type Router struct {
	mux  *http.ServeMux
	gate func(http.Handler) http.Handler
}

func NewRouter(tokens *auth.TokenService, h Handlers) *Router {
	r := &Router{
		mux:  http.NewServeMux(),
		gate: auth.Middleware(tokens),
	}
	r.setupRoutes(h)
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes(h Handlers) {
	if h.Liveness != nil {
		r.mux.HandleFunc("GET /health/live", h.Liveness)
	}
	if h.Readiness != nil {
		r.mux.HandleFunc("GET /health/ready", h.Readiness)
	}
	if h.Metrics != nil {
		r.mux.Handle("GET /metrics", h.Metrics)
	}
	if h.Websocket != nil {
		r.mux.HandleFunc("GET "+prefix+"/ws", h.Websocket)
	}

	// Accounts
	r.public("POST /users/register", h.Auth.Register)
	r.public("POST /users/login", h.Auth.Login)
	r.public("POST /users/refresh-token", h.Auth.Refresh)
	r.private("POST /users/logout", h.Auth.Logout)
	r.private("GET /users/current-user", h.Auth.CurrentAccount)

	// Videos
	r.public("GET /videos", h.Videos.List)
	r.private("POST /videos", h.Videos.Publish)
	r.public("GET /videos/{videoId}", h.Videos.Get)
	r.private("PATCH /videos/{videoId}", h.Videos.Update)
	r.private("DELETE /videos/{videoId}", h.Videos.Delete)
	r.private("PATCH /videos/{videoId}/toggle-publish", h.Videos.TogglePublish)

	// Comments
	r.public("GET /videos/{videoId}/comments", h.Comments.List)
	r.private("POST /videos/{videoId}/comments", h.Comments.Add)
	r.private("PATCH /comments/{commentId}", h.Comments.Update)
	r.private("DELETE /comments/{commentId}", h.Comments.Delete)

	// Playlists
	r.private("POST /playlists", h.Playlists.Create)
	r.public("GET /playlists/user/{userId}", h.Playlists.ListByUser)
	r.public("GET /playlists/{playlistId}", h.Playlists.Get)
	r.private("PATCH /playlists/{playlistId}", h.Playlists.Update)
	r.private("DELETE /playlists/{playlistId}", h.Playlists.Delete)
	r.private("PATCH /playlists/{playlistId}/add/{videoId}", h.Playlists.AddVideo)
	r.private("PATCH /playlists/{playlistId}/remove/{videoId}", h.Playlists.RemoveVideo)

	// Subscriptions
	r.private("POST /subscriptions/{channelId}/toggle", h.Subscriptions.Toggle)
	r.public("GET /subscriptions/channel/{channelId}/subscribers", h.Subscriptions.Subscribers)
	r.public("GET /subscriptions/user/{subscriberId}/channels", h.Subscriptions.Channels)

	// Tweets
	r.private("POST /tweets", h.Tweets.Create)
	r.public("GET /tweets/user/{userId}", h.Tweets.ListByUser)
	r.private("PATCH /tweets/{tweetId}", h.Tweets.Update)
	r.private("DELETE /tweets/{tweetId}", h.Tweets.Delete)

	// Dashboard & likes
	r.public("GET /dashboard/{channelId}/stats", h.Dashboard.Stats)
	r.public("GET /dashboard/{channelId}/videos", h.Dashboard.Videos)
	r.private("POST /likes/toggle/v/{videoId}", h.Likes.ToggleVideoLike)
}

// public mounts pattern ("METHOD /path") under the API prefix.
func (r *Router) public(pattern string, h apperrors.Handler) {
	r.mux.Handle(withPrefix(pattern), apperrors.HandleFunc(h))
}

// private is public behind the auth gate.
func (r *Router) private(pattern string, h apperrors.Handler) {
	r.mux.Handle(withPrefix(pattern), r.gate(apperrors.HandleFunc(h)))
}

func withPrefix(pattern string) string {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		return prefix + pattern
	}
	return method + " " + prefix + path
}

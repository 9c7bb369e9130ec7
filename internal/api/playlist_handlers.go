package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/ingest"
)

func (s *Server) registerPlaylistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "importPlaylist",
		Method:        http.MethodPost,
		Path:          "/api/v1/playlists",
		Summary:       "Import a playlist",
		Description:   "Starts importing the playlist at the given URL in the background. Importing the same URL again re-ingests into the same playlist record.",
		Tags:          []string{"Playlists"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleImportPlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaylists",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists",
		Summary:     "List playlists",
		Tags:        []string{"Playlists"},
	}, s.handleListPlaylists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlaylist",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Get playlist",
		Description: "Returns the playlist record with its import status and stats.",
		Tags:        []string{"Playlists"},
	}, s.handleGetPlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlaylistProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}/progress",
		Summary:     "Get import progress",
		Description: "Returns the latest progress snapshot for the playlist import. Poll this while the playlist status is indexing.",
		Tags:        []string{"Playlists"},
	}, s.handleGetProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaylistGroups",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}/groups",
		Summary:     "List playlist groups",
		Tags:        []string{"Playlists"},
	}, s.handleListGroups)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaylistSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}/series",
		Summary:     "List playlist series",
		Tags:        []string{"Playlists"},
	}, s.handleListSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGroupItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}/groups/{groupID}/items",
		Summary:     "List items of a group",
		Tags:        []string{"Playlists"},
	}, s.handleListGroupItems)
}

// === DTOs ===

// ImportPlaylistRequest is the body of an import request.
type ImportPlaylistRequest struct {
	URL string `json:"url" validate:"required,url" doc:"HTTP(S) URL of the M3U playlist"`
}

// ImportPlaylistInput wraps the import request for Huma.
type ImportPlaylistInput struct {
	Body ImportPlaylistRequest
}

// PlaylistOutput wraps one playlist record.
type PlaylistOutput struct {
	Body *domain.Playlist
}

// PlaylistsOutput wraps a playlist listing.
type PlaylistsOutput struct {
	Body []*domain.Playlist
}

// PlaylistInput identifies one playlist.
type PlaylistInput struct {
	ID string `path:"id" doc:"Playlist ID"`
}

// ProgressOutput wraps a progress snapshot.
type ProgressOutput struct {
	Body *ingest.Progress
}

// GroupsOutput wraps the group aggregates of a playlist.
type GroupsOutput struct {
	Body []*domain.Group
}

// SeriesOutput wraps the series aggregates of a playlist.
type SeriesOutput struct {
	Body []*domain.Series
}

// GroupItemsInput identifies one group within a playlist.
type GroupItemsInput struct {
	ID      string `path:"id" doc:"Playlist ID"`
	GroupID string `path:"groupID" doc:"Group ID"`
	Limit   int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Maximum items to return"`
}

// ItemsOutput wraps an item listing.
type ItemsOutput struct {
	Body []*domain.Item
}

// === Handlers ===

func (s *Server) handleImportPlaylist(ctx context.Context, input *ImportPlaylistInput) (*PlaylistOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	playlist, err := s.playlists.StartIngest(ctx, input.Body.URL)
	if err != nil {
		s.logger.Error("Failed to start playlist import", "url", input.Body.URL, "error", err)
		return nil, err
	}

	return &PlaylistOutput{Body: playlist}, nil
}

func (s *Server) handleListPlaylists(ctx context.Context, _ *struct{}) (*PlaylistsOutput, error) {
	playlists, err := s.playlists.ListPlaylists(ctx)
	if err != nil {
		s.logger.Error("Failed to list playlists", "error", err)
		return nil, err
	}
	return &PlaylistsOutput{Body: playlists}, nil
}

func (s *Server) handleGetPlaylist(ctx context.Context, input *PlaylistInput) (*PlaylistOutput, error) {
	playlist, err := s.playlists.GetPlaylist(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PlaylistOutput{Body: playlist}, nil
}

func (s *Server) handleGetProgress(ctx context.Context, input *PlaylistInput) (*ProgressOutput, error) {
	progress, err := s.playlists.Progress(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: progress}, nil
}

func (s *Server) handleListGroups(ctx context.Context, input *PlaylistInput) (*GroupsOutput, error) {
	groups, err := s.playlists.GetGroups(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GroupsOutput{Body: groups}, nil
}

func (s *Server) handleListSeries(ctx context.Context, input *PlaylistInput) (*SeriesOutput, error) {
	series, err := s.playlists.GetSeries(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SeriesOutput{Body: series}, nil
}

func (s *Server) handleListGroupItems(ctx context.Context, input *GroupItemsInput) (*ItemsOutput, error) {
	items, err := s.playlists.GetGroupItems(ctx, input.ID, input.GroupID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &ItemsOutput{Body: items}, nil
}

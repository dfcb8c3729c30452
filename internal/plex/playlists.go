package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Playlist is a server-side playlist handle.
type Playlist struct {
	RatingKey string
	Title     string
}

// Playlists lists the server's audio playlists.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var out struct {
		MediaContainer struct {
			Metadata []struct {
				RatingKey string `json:"ratingKey"`
				Title     string `json:"title"`
			} `json:"Metadata"`
		} `json:"MediaContainer"`
	}
	query := url.Values{"playlistType": {"audio"}}
	if err := c.request(ctx, http.MethodGet, "/playlists", query, &out); err != nil {
		return nil, err
	}
	playlists := make([]Playlist, 0, len(out.MediaContainer.Metadata))
	for _, m := range out.MediaContainer.Metadata {
		playlists = append(playlists, Playlist{RatingKey: m.RatingKey, Title: m.Title})
	}
	return playlists, nil
}

// CreatePlaylist creates an audio playlist containing the given tracks, in
// the given order. Requires Verify to have cached the machine identifier.
func (c *Client) CreatePlaylist(ctx context.Context, name string, ratingKeys []string) error {
	if c.machineID == "" {
		return fmt.Errorf("creating playlist %q: machine identifier unknown, call Verify first", name)
	}
	if len(ratingKeys) == 0 {
		return fmt.Errorf("creating playlist %q: no tracks to add", name)
	}
	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		c.machineID, strings.Join(ratingKeys, ","))
	query := url.Values{
		"type":  {"audio"},
		"smart": {"0"},
		"title": {name},
		"uri":   {uri},
	}
	if err := c.request(ctx, http.MethodPost, "/playlists", query, nil); err != nil {
		return fmt.Errorf("creating playlist %q: %w", name, err)
	}
	return nil
}

// DeletePlaylist removes a playlist by rating key.
func (c *Client) DeletePlaylist(ctx context.Context, ratingKey string) error {
	path := fmt.Sprintf("/playlists/%s", ratingKey)
	if err := c.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting playlist %s: %w", ratingKey, err)
	}
	return nil
}

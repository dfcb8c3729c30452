package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brettwatson77/autoPLEX/internal/filekey"
	"github.com/brettwatson77/autoPLEX/internal/models"
)

const trackType = "10" // Plex metadata type for music tracks

const pageSize = 200

type mediaContainer struct {
	MediaContainer struct {
		Size      int             `json:"size"`
		TotalSize int             `json:"totalSize"`
		Metadata  []trackMetadata `json:"Metadata"`
	} `json:"MediaContainer"`
}

type trackMetadata struct {
	RatingKey        string `json:"ratingKey"`
	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle"` // album artist
	OriginalTitle    string `json:"originalTitle"`    // track artist, when set
	ParentTitle      string `json:"parentTitle"`      // album
	Media            []struct {
		Part []struct {
			File string `json:"file"`
		} `json:"Part"`
	} `json:"Media"`
}

func (t trackMetadata) record() models.TrackRecord {
	artist := t.OriginalTitle
	if artist == "" {
		artist = t.GrandparentTitle
	}
	rec := models.TrackRecord{
		Artist:   artist,
		Album:    t.ParentTitle,
		Title:    t.Title,
		Source:   models.SourceServer,
		ServerID: t.RatingKey,
	}
	for _, m := range t.Media {
		for _, p := range m.Part {
			if p.File != "" {
				rec.FileKey = filekey.Normalize(p.File)
				return rec
			}
		}
	}
	return rec
}

// SectionTracks lists every music track in a library section. onPage, when
// non-nil, is called after each page with (fetched, total) so the CLI can
// drive a progress bar.
func (c *Client) SectionTracks(ctx context.Context, sectionID string, onPage func(fetched, total int)) ([]models.TrackRecord, error) {
	var records []models.TrackRecord

	for start := 0; ; {
		query := url.Values{
			"type":                   {trackType},
			"X-Plex-Container-Start": {strconv.Itoa(start)},
			"X-Plex-Container-Size":  {strconv.Itoa(pageSize)},
		}
		var page mediaContainer
		path := fmt.Sprintf("/library/sections/%s/all", sectionID)
		if err := c.request(ctx, http.MethodGet, path, query, &page); err != nil {
			return nil, err
		}

		for _, t := range page.MediaContainer.Metadata {
			rec := t.record()
			if rec.FileKey == "" {
				continue // no underlying media part, cannot be joined
			}
			records = append(records, rec)
		}

		fetched := len(page.MediaContainer.Metadata)
		start += fetched
		if onPage != nil {
			onPage(start, page.MediaContainer.TotalSize)
		}
		if fetched == 0 || start >= page.MediaContainer.TotalSize {
			return records, nil
		}
	}
}

// TrackByID re-reads a single track, used to verify applied changes.
func (c *Client) TrackByID(ctx context.Context, ratingKey string) (models.TrackRecord, error) {
	var out mediaContainer
	path := fmt.Sprintf("/library/metadata/%s", ratingKey)
	if err := c.request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return models.TrackRecord{}, err
	}
	if len(out.MediaContainer.Metadata) == 0 {
		return models.TrackRecord{}, fmt.Errorf("plex track %s not found", ratingKey)
	}
	return out.MediaContainer.Metadata[0].record(), nil
}

// plexField maps the uniform field names onto Plex's track edit fields.
// Artist lives on originalTitle, album on parentTitle, as the desktop
// edit dialog does it.
func plexField(field string) (string, error) {
	switch field {
	case models.FieldTitle:
		return "title", nil
	case models.FieldArtist:
		return "originalTitle", nil
	case models.FieldAlbum:
		return "parentTitle", nil
	default:
		return "", fmt.Errorf("unknown metadata field %q", field)
	}
}

// UpdateTrackField overwrites one metadata field on one track, locking the
// field so the server's agents don't scrape it back.
func (c *Client) UpdateTrackField(ctx context.Context, sectionID, ratingKey, field, value string) error {
	name, err := plexField(field)
	if err != nil {
		return err
	}
	query := url.Values{
		"type":           {trackType},
		"id":             {ratingKey},
		name + ".value":  {value},
		name + ".locked": {"1"},
	}
	path := fmt.Sprintf("/library/sections/%s/all", sectionID)
	if err := c.request(ctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("updating %s on track %s: %w", field, ratingKey, err)
	}
	return nil
}

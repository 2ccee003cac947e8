package browse

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/listing"
	"github.com/satchelfiles/satchel/pkg/thumbnail"
)

type handler struct {
	cache    *listing.Cache
	pipeline *thumbnail.Pipeline
}

func (h *handler) list(c echo.Context) error {
	params := ListQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if params.RequireFull {
		entries, ok := h.cache.Get(params.Dir, true)
		if !ok {
			return errors.WithStack(c.JSON(http.StatusOK, ListResponse{Dir: params.Dir, FullyLoaded: false}))
		}
		return errors.WithStack(c.JSON(http.StatusOK, ListResponse{
			Dir:         params.Dir,
			Entries:     filterEntries(entries, params.Search),
			FullyLoaded: true,
		}))
	}

	entries, err := h.cache.GetOrLoad(c.Request().Context(), params.Dir)
	if err != nil {
		return errors.WithStack(err)
	}

	_, fullyLoaded := h.cache.Get(params.Dir, true)
	return errors.WithStack(c.JSON(http.StatusOK, ListResponse{
		Dir:         params.Dir,
		Entries:     filterEntries(entries, params.Search),
		FullyLoaded: fullyLoaded,
	}))
}

// filterEntries applies a case-insensitive substring match on names. The
// cached listing stays canonical; filtering is a surface concern.
func filterEntries(entries []entry.DirectoryEntry, search string) []entry.DirectoryEntry {
	if search == "" {
		return entries
	}
	needle := strings.ToLower(search)
	out := make([]entry.DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}

func (h *handler) refresh(c echo.Context) error {
	params := RefreshPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, err := h.cache.Refresh(c.Request().Context(), params.Dir)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListResponse{
		Dir:         params.Dir,
		Entries:     entries,
		FullyLoaded: true,
	}))
}

func (h *handler) thumbnail(c echo.Context) error {
	params := ThumbnailQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	e := entry.DirectoryEntry{
		Name:   params.Name,
		Kind:   entry.KindFile,
		Handle: params.Handle,
	}

	payload := h.pipeline.Request(c.Request().Context(), e)
	resp := ThumbnailResponse{Key: entry.KeyFor(e), Payload: payload}
	if payload != nil {
		resp.Type = payload.PayloadType()
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) visible(c echo.Context) error {
	params := VisiblePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries := make([]entry.DirectoryEntry, len(params.Entries))
	for i, v := range params.Entries {
		entries[i] = v.directoryEntry()
	}
	h.pipeline.RequestVisibleSet(entries)

	return errors.WithStack(c.NoContent(http.StatusAccepted))
}

func (h *handler) stats(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, StatsResponse{
		Listings:   h.cache.Stats(),
		Thumbnails: h.pipeline.Stats(),
	}))
}

func (h *handler) cleanup(c echo.Context) error {
	dropped := h.cache.Cleanup()
	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"dropped_listings": dropped}))
}

func (h *handler) clear(c echo.Context) error {
	h.cache.Clear()
	h.pipeline.Clear()
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) invalidate(c echo.Context) error {
	params := InvalidatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if params.All {
		h.cache.InvalidateAll()
	} else {
		h.cache.Invalidate(params.Dir)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

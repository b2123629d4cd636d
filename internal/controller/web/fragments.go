package web

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/database"
)

// HTMX partial responses

func (h *Handler) statsFragment(c echo.Context) error {
	view := h.coord.View()

	running, paused := 0, 0
	for _, jv := range view.Jobs {
		switch jv.Status {
		case engine.StateRunning:
			running++
		case engine.StatePaused:
			paused++
		}
	}

	conn := `<span class="status-completed">connected</span>`
	if !view.Connected {
		conn = `<span class="status-failed">offline</span>`
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(
		`<strong>%d</strong> queued &middot; <strong>%d</strong> running &middot; <strong>%d</strong> paused &middot; engine %s`,
		view.QueueLength, running, paused, conn))
}

// errorFragment renders the persistent error banner. It stays up across
// refreshes until the operator dismisses it; the next poll cycle after the
// dismiss returns an empty fragment and the banner disappears.
func (h *Handler) errorFragment(c echo.Context) error {
	view := h.coord.View()
	if view.LastError == nil {
		return c.HTML(http.StatusOK, "")
	}

	le := view.LastError
	return c.HTML(http.StatusOK, fmt.Sprintf(
		`<article class="error-banner"><strong>%s error</strong> %s <small>%s</small> <button class="secondary outline" hx-post="/api/v1/errors/dismiss" hx-swap="none">Dismiss</button></article>`,
		le.Kind, html.EscapeString(le.Message), le.OccurredAt.Format("15:04:05")))
}

func (h *Handler) jobsFragment(c echo.Context) error {
	view := h.coord.View()

	var sb strings.Builder
	sb.WriteString(`<table role="grid"><thead><tr><th>Name</th><th>Status</th><th>Progress</th><th>Created</th><th>Actions</th></tr></thead><tbody>`)
	if len(view.Jobs) == 0 {
		sb.WriteString(`<tr><td colspan="5"><small>No jobs. Submit one above.</small></td></tr>`)
	}
	for _, jv := range view.Jobs {
		sb.WriteString(jobRow(jv))
	}
	sb.WriteString(`</tbody></table>`)
	return c.HTML(http.StatusOK, sb.String())
}

func jobRow(jv coordinator.JobView) string {
	name := html.EscapeString(jv.Name)
	if name == "" {
		name = "<small>(unnamed)</small>"
	}
	detail := html.EscapeString(jv.ID)
	if jv.Queued && jv.Delivery != "" {
		detail += " &middot; " + html.EscapeString(jv.Delivery)
	}

	status := string(jv.Display)
	if jv.Queued {
		status = fmt.Sprintf("queued #%d", jv.Position+1)
	}

	progress := "&mdash;"
	if !jv.Queued {
		progress = fmt.Sprintf("%d/%d", jv.Counts.Done, jv.Counts.Total)
		if jv.Counts.Failed > 0 {
			progress += fmt.Sprintf(" (%d failed)", jv.Counts.Failed)
		}
	}

	return fmt.Sprintf(`<tr><td>%s<br><small><code>%s</code></small></td><td><span class="status-%s">%s</span></td><td>%s</td><td><small>%s</small></td><td>%s</td></tr>`,
		name, detail, jv.Display, status, progress, jv.CreatedAt.Format("Jan 2 15:04"), jobActions(jv))
}

// jobActions picks buttons from the live state, not the smoothed display
// state, so a job the engine already reports as paused offers Resume even
// while the table still shows it running.
func jobActions(jv coordinator.JobView) string {
	if jv.Queued {
		return `<small>waiting for dispatch</small>`
	}

	btn := func(label, verb string) string {
		return fmt.Sprintf(`<button class="secondary outline" hx-post="/api/v1/jobs/%s/%s" hx-swap="none">%s</button>`, jv.ID, verb, label)
	}
	switch jv.Status {
	case engine.StateRunning:
		return btn("Pause", "pause") + btn("Cancel", "cancel")
	case engine.StatePaused:
		return btn("Resume", "resume") + btn("Cancel", "cancel")
	case engine.StatePending:
		return btn("Start", "start") + btn("Cancel", "cancel")
	default:
		return fmt.Sprintf(`<button class="secondary outline" hx-delete="/api/v1/jobs/%s" hx-swap="none">Delete</button>`, jv.ID)
	}
}

func (h *Handler) archiveFragment(c echo.Context) error {
	jobs, err := h.queries.ListArchivedJobs(c.Request().Context(), database.ListArchivedJobsParams{Limit: 50, Offset: 0})
	if err != nil {
		return c.HTML(http.StatusOK, "<p>Error loading archive</p>")
	}

	var sb strings.Builder
	sb.WriteString(`<table role="grid"><thead><tr><th>Name</th><th>Status</th><th>Tasks</th><th>Archived</th></tr></thead><tbody>`)
	if len(jobs) == 0 {
		sb.WriteString(`<tr><td colspan="4"><small>Nothing archived yet</small></td></tr>`)
	}
	for _, a := range jobs {
		name := html.EscapeString(a.Name)
		if name == "" {
			name = "<small>(unnamed)</small>"
		}
		sb.WriteString(fmt.Sprintf(`<tr><td>%s<br><small><code>%s</code></small></td><td><span class="status-%s">%s</span></td><td>%d/%d</td><td><small>%s</small></td></tr>`,
			name, html.EscapeString(a.JobID), a.Status, a.Status, a.TasksDone, a.TasksTotal, a.ArchivedAt.Format("Jan 2 15:04")))
	}
	sb.WriteString(`</tbody></table>`)
	return c.HTML(http.StatusOK, sb.String())
}

func (h *Handler) presetsFragment(c echo.Context) error {
	presets, err := h.queries.ListPresets(c.Request().Context())
	if err != nil {
		return c.HTML(http.StatusOK, "<p>Error loading presets</p>")
	}

	var sb strings.Builder
	sb.WriteString(`<table role="grid"><thead><tr><th>Name</th><th>Codec</th><th>Container</th><th>Delivery</th><th>Output</th></tr></thead><tbody>`)
	if len(presets) == 0 {
		sb.WriteString(`<tr><td colspan="5"><small>No presets. Create them through the API.</small></td></tr>`)
	}
	for _, p := range presets {
		sb.WriteString(fmt.Sprintf(`<tr><td>%s<br><small><code>%s</code></small></td><td>%s</td><td>%s</td><td>%s</td><td><small>%s</small></td></tr>`,
			html.EscapeString(p.Name), html.EscapeString(p.ID), html.EscapeString(p.Codec),
			html.EscapeString(p.Container), html.EscapeString(p.Delivery), html.EscapeString(p.OutputDir)))
	}
	sb.WriteString(`</tbody></table>`)
	return c.HTML(http.StatusOK, sb.String())
}

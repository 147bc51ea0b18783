package client

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MKhiriev/go-offline-sync/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, faintStyle.Render("nothing to show"))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}

func renderActions(w io.Writer, actions []models.Action) {
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		note := a.LastError
		if a.BlockedBy != "" {
			note = "blocked by " + a.BlockedBy
		}
		rows = append(rows, []string{
			a.ID,
			string(a.Type),
			string(a.Status),
			a.Priority.String(),
			fmt.Sprintf("%d/%d", a.RetryCount, a.MaxRetries),
			a.ResourceKey(),
			note,
		})
	}
	renderTable(w, []string{"ID", "TYPE", "STATUS", "PRIORITY", "RETRIES", "RESOURCE", "NOTE"}, rows)
}

func renderProofs(w io.Writer, proofs []models.OfflineProof, now time.Time) {
	rows := make([][]string, 0, len(proofs))
	for _, p := range proofs {
		rows = append(rows, []string{
			p.ID,
			p.ProofType,
			string(p.StatusAt(now)),
			string(p.SyncStatus),
			p.ExpiresAt.Local().Format(time.DateTime),
			p.ActionID,
		})
	}
	renderTable(w, []string{"ID", "TYPE", "VALIDATION", "SYNC", "EXPIRES", "ACTION"}, rows)
}

func renderConflicts(w io.Writer, conflicts []models.Conflict) {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, []string{
			c.ID,
			string(c.Type),
			c.ResourceKey,
			c.ActionID,
			fmt.Sprintf("%d -> %d", c.BaseVersion, c.ServerVersion),
			changedFields(c.LocalSnapshot, c.ServerSnapshot),
		})
	}
	renderTable(w, []string{"ID", "TYPE", "RESOURCE", "ACTION", "VERSIONS", "DIFFERS"}, rows)
}

// changedFields lists the snapshot keys whose values differ between local
// and server.
func changedFields(local, server models.Snapshot) string {
	var fields []string
	for key, value := range local {
		if fmt.Sprint(server[key]) != fmt.Sprint(value) {
			fields = append(fields, key)
		}
	}
	for key := range server {
		if _, ok := local[key]; !ok {
			fields = append(fields, key)
		}
	}
	slices.Sort(fields)
	return strings.Join(fields, ",")
}

func renderReport(w io.Writer, r models.PassReport) {
	switch {
	case r.Coalesced:
		fmt.Fprintln(w, "a pass is already running, another one is scheduled after it")
		return
	case r.Suppressed:
		fmt.Fprintln(w, "pass suppressed: network degraded and too many actions pending")
		return
	}

	fmt.Fprintln(w, titleStyle.Render("sync pass ("+string(r.Trigger)+")"))
	renderPairs(w, [][2]string{
		{"submitted", strconv.Itoa(r.Submitted)},
		{"applied", strconv.Itoa(r.Applied)},
		{"duplicates", strconv.Itoa(r.Duplicates)},
		{"conflicts", strconv.Itoa(r.Conflicts)},
		{"rejected", strconv.Itoa(r.Rejected)},
		{"retried", strconv.Itoa(r.Retried)},
		{"failed", strconv.Itoa(r.Failed)},
		{"blocked", strconv.Itoa(r.Blocked)},
		{"waiting", strconv.Itoa(r.Waiting)},
		{"duration", r.Finished.Sub(r.Started).Round(time.Millisecond).String()},
	})
	if r.Cancelled {
		fmt.Fprintln(w, faintStyle.Render("pass was cancelled"))
	}
	if r.Checkpoint != nil {
		fmt.Fprintf(w, "checkpoint advanced to %d\n", r.Checkpoint.Version)
	}
}

func renderPairs(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "  %-*s  %s\n", width, p[0], p[1])
	}
}

package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gerritwatch/internal/models"
)

// Formatter renders a notification as plain text, one line per classified item.
type Formatter struct {
	// Users maps an owner email to a chat user id mentioned next to the owner.
	Users map[string]string
}

func (f Formatter) Render(n *models.Notification, reportEmpty bool) string {
	d := n.Delta
	var b strings.Builder
	fmt.Fprintf(&b, "%s delta report @ %s", d.Type, time.UnixMilli(n.Timestamp).UTC().Format(time.RFC1123))
	if reportEmpty && d.Count == 0 {
		b.WriteString("\nNo changes")
	}
	f.section(&b, "Added", d.Add, reportEmpty)
	f.section(&b, "Dropped", d.Drop, reportEmpty)
	f.section(&b, "Merged", d.Merge, reportEmpty)
	return b.String()
}

func (f Formatter) section(b *strings.Builder, title string, entries []models.DeltaEntry, reportEmpty bool) {
	if len(entries) == 0 && !reportEmpty {
		return
	}
	fmt.Fprintf(b, "\n%s: %d", title, len(entries))
	for _, e := range entries {
		b.WriteString("\n  ")
		b.WriteString(f.line(e))
	}
}

func (f Formatter) line(e models.DeltaEntry) string {
	parts := []string{strconv.Itoa(e.ID)}
	if e.Subject != "" {
		parts = append(parts, e.Subject)
	}
	if e.Owner != "" {
		owner := e.Owner
		if id, ok := f.Users[e.Email]; ok {
			owner += " <@" + id + ">"
		}
		parts = append(parts, owner)
	}
	if e.Subject != "" {
		parts = append(parts, "V:"+e.VScore.String())
	}
	if len(e.Reviewers) > 0 {
		votes := make([]string, len(e.Reviewers))
		for i, r := range e.Reviewers {
			votes[i] = r.Name + " " + r.Value
		}
		parts = append(parts, "CR: "+strings.Join(votes, ", "))
	}
	return strings.Join(parts, " | ")
}

// IDList joins entry ids with commas.
func IDList(entries []models.DeltaEntry) string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = strconv.Itoa(e.ID)
	}
	return strings.Join(ids, ",")
}

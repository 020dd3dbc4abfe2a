// ABOUTME: Flat, serializable view of a focus item shared by the CLI, MCP, and web surfaces
// ABOUTME: Keeps the tagged FocusItem internal while giving outer layers stable JSON
package focus

import (
	"errors"
	"time"
)

// ItemView is the display form of a FocusItem.
type ItemView struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Band        string  `json:"band"`
	Rank        int     `json:"rank"`
	Overdue     bool    `json:"overdue,omitempty"`
	DueAt       *string `json:"due_at,omitempty"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Entity      string  `json:"entity,omitempty"`
	EntityID    string  `json:"entity_id,omitempty"`
}

// NewItemView flattens item.
func NewItemView(item FocusItem) ItemView {
	v := ItemView{
		ID:    item.ID(),
		Kind:  item.Kind().String(),
		Title: item.Title(),
		Band:  item.Band().String(),
		Rank:  item.Rank,
	}
	if a, ok := item.Activity(); ok {
		due := a.DueAt.UTC().Format(time.RFC3339)
		v.DueAt = &due
		v.Type = string(a.Type)
		v.Description = a.Description
		v.Overdue = item.Band() == BandOverdue
	}
	if s, ok := item.Suggestion(); ok {
		v.Type = string(s.Key.Type)
		v.Description = s.Description
		v.Priority = string(s.Priority)
		v.Score = s.Score
		v.Entity = string(s.Key.EntityType())
		v.EntityID = s.Key.EntityID.String()
	}
	return v
}

// Views flattens a queue.
func Views(queue []FocusItem) []ItemView {
	out := make([]ItemView, len(queue))
	for i, item := range queue {
		out[i] = NewItemView(item)
	}
	return out
}

// SourceErrors splits a Refresh error into one message per failing source.
func SourceErrors(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

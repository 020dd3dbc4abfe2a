// ABOUTME: Matches calendar attendees to CRM contacts
// ABOUTME: Case-insensitive lookup by email address
package sync

import (
	"strings"

	"github.com/harperreed/focus/models"
)

type ContactMatcher struct {
	byEmail map[string]*models.Contact
}

// NewContactMatcher indexes contacts by normalized email.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{byEmail: make(map[string]*models.Contact)}
	for i := range contacts {
		if email := normalizeEmail(contacts[i].Email); email != "" {
			m.byEmail[email] = &contacts[i]
		}
	}
	return m
}

// FindMatch looks up a contact by email.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}
	contact, found := m.byEmail[normalized]
	return contact, found
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

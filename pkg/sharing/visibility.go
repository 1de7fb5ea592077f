// Package sharing holds the visibility rule: an item is visible to its owner
// and to every identity on its shared-with list. The backend enforces the same
// predicate in SQL; checks made here are for display only.
package sharing

import "slices"

// Item is anything with an owner and a shared-with list.
type Item interface {
	Owner() string
	Recipients() []string
}

// Visible reports whether userID may see and mutate item.
func Visible(item Item, userID string) bool {
	if userID == "" {
		return false
	}
	return item.Owner() == userID || slices.Contains(item.Recipients(), userID)
}

// SharedWithMe reports whether item reached userID through sharing rather
// than ownership.
func SharedWithMe(item Item, userID string) bool {
	return Visible(item, userID) && item.Owner() != userID
}

// Filter keeps the items for which keep(item, userID) holds.
func Filter[T Item](items []T, userID string, keep func(Item, string) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it, userID) {
			out = append(out, it)
		}
	}
	return out
}

// NormalizeRecipients dedupes ids keeping first occurrence and drops empty
// ids. The result is never nil so it stores as an empty array, not NULL.
func NormalizeRecipients(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Audience is every identity that could see an item: the owner plus the
// union of the given recipient lists (e.g. before and after a share).
func Audience(owner string, recipients ...[]string) []string {
	all := []string{owner}
	for _, r := range recipients {
		all = append(all, r...)
	}
	return NormalizeRecipients(all)
}

// Package sync reconciles locally stored drafts with the letters listed by
// the backend for the signed-in user.
package sync

import (
	"encoding/json"
	"strconv"

	"github.com/jun/letterdrive/core/draft"
)

// CloudFile is a letter stored by the backend. It is never modified on the client.
type CloudFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WebViewLink  string `json:"webViewLink"`
	LastModified string `json:"lastModified"`
}

// Entry is one row of the merged list: either a cloud file or a local draft.
type Entry struct {
	Cloud *CloudFile
	Draft *draft.Draft
}

// Key is the identity used to deduplicate the merged list.
func (e Entry) Key() string {
	if e.Cloud != nil {
		return e.Cloud.ID
	}
	if e.Draft != nil {
		return strconv.FormatInt(e.Draft.ID, 10)
	}
	return ""
}

// IsCloud reports whether the entry came from the remote listing.
func (e Entry) IsCloud() bool {
	return e.Cloud != nil
}

// Title is the text shown for the entry: the draft preview or the file name.
func (e Entry) Title() string {
	if e.Cloud != nil {
		return e.Cloud.Name
	}
	if e.Draft != nil {
		return e.Draft.Preview
	}
	return ""
}

// Updated is the entry's last modification time as displayed.
func (e Entry) Updated() string {
	if e.Cloud != nil {
		return e.Cloud.LastModified
	}
	if e.Draft != nil {
		return e.Draft.UpdatedAt
	}
	return ""
}

// MarshalJSON encodes the underlying record, so a merged list serializes
// as a flat array of cloud files and drafts.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Cloud != nil {
		return json.Marshal(e.Cloud)
	}
	return json.Marshal(e.Draft)
}

// Merge returns cloud files first, followed by the local drafts whose key
// matches no cloud file. Keys are unique in the result; cloud files win.
func Merge(cloud []CloudFile, locals []draft.Draft) []Entry {
	seen := make(map[string]struct{}, len(cloud)+len(locals))
	out := make([]Entry, 0, len(cloud)+len(locals))

	for i := range cloud {
		c := cloud[i]
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, Entry{Cloud: &c})
	}
	for i := range locals {
		d := locals[i]
		key := strconv.FormatInt(d.ID, 10)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Entry{Draft: &d})
	}
	return out
}

// Locals returns the drafts held in entries, in order.
func Locals(entries []Entry) []draft.Draft {
	var out []draft.Draft
	for _, e := range entries {
		if e.Draft != nil {
			out = append(out, *e.Draft)
		}
	}
	return out
}

package models

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cockroachdb/errors"
)

const (
	CategoryOpen   = "open"
	CategoryMerged = "merged"

	LabelVerified   = "Verified"
	LabelCodeReview = "Code-Review"

	HashtagUrgent = "urgent"
)

// DefaultCategories are fetched on every cycle and referenced by the log state.
var DefaultCategories = []string{CategoryOpen, CategoryMerged}

type Account struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Vote is a single reviewer vote on a label. A vote without a value counts as 0.
type Vote struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Value    int    `json:"value,omitempty"`
}

type LabelBlock struct {
	All []Vote `json:"all,omitempty"`
}

// ChangeRecord is one review item as fetched from the review service.
type ChangeRecord struct {
	ID       int                   `json:"_number"`
	Subject  string                `json:"subject"`
	Owner    Account               `json:"owner"`
	Hashtags []string              `json:"hashtags"`
	Labels   map[string]LabelBlock `json:"labels,omitempty"`
}

func (c *ChangeRecord) HasHashtag(tag string) bool {
	for _, h := range c.Hashtags {
		if h == tag {
			return true
		}
	}
	return false
}

// Votes returns the votes recorded on label, or nil when the label is absent.
func (c *ChangeRecord) Votes(label string) []Vote {
	block, ok := c.Labels[label]
	if !ok {
		return nil
	}
	return block.All
}

// VerifiedScore summarises the Verified label. It is derived on every call.
func (c *ChangeRecord) VerifiedScore() VerifiedScore {
	return ScoreVotes(c.Votes(LabelVerified))
}

// Identities returns the record ids in input order with duplicates removed.
func Identities(records []ChangeRecord) []int {
	ids := make([]int, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}
	return ids
}

// FindRecord returns the record with the given id, if present.
func FindRecord(records []ChangeRecord, id int) (*ChangeRecord, bool) {
	for i := range records {
		if records[i].ID == id {
			return &records[i], true
		}
	}
	return nil, false
}

// ValidID reports whether id is a change number an IDSet can hold.
func ValidID(id int) bool {
	return id > 0 && uint64(id) <= math.MaxUint32
}

// CheckIDs fails on the first record whose id is not a valid change number.
func CheckIDs(records []ChangeRecord) error {
	for i := range records {
		if !ValidID(records[i].ID) {
			return errors.Newf("change id %d out of range (record %d, %q)", records[i].ID, i, records[i].Subject)
		}
	}
	return nil
}

// IDSet builds a membership bitmap over change ids. Ids outside the 32-bit
// range are left out rather than folded onto another id.
func IDSet(ids []int) *roaring.Bitmap {
	set := roaring.New()
	for _, id := range ids {
		if ValidID(id) {
			set.AddInt(id)
		}
	}
	return set
}

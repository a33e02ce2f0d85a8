package models

import "strconv"

// ExtractUrgent maps every record tagged "urgent" to its display shape,
// preserving input order.
func ExtractUrgent(records []ChangeRecord) []UrgentPatch {
	patches := make([]UrgentPatch, 0)
	for i := range records {
		r := &records[i]
		if !r.HasHashtag(HashtagUrgent) {
			continue
		}
		patches = append(patches, UrgentPatch{
			ID:      r.ID,
			Subject: r.Subject,
			Owner:   r.Owner.Name,
			Email:   r.Owner.Email,
			VScore:  r.VerifiedScore(),
		})
	}
	return patches
}

// ReviewersFor returns the Code-Review votes on patch id among open, skipping
// votes cast by excluded. An id that is not open has no reviewers.
func ReviewersFor(id int, open []ChangeRecord, excluded string) []Reviewer {
	reviewers := make([]Reviewer, 0)
	record, ok := FindRecord(open, id)
	if !ok {
		return reviewers
	}
	for _, v := range record.Votes(LabelCodeReview) {
		if excluded != "" && v.Name == excluded {
			continue
		}
		reviewers = append(reviewers, Reviewer{
			Name:  v.Name,
			Email: v.Email,
			Value: voteToken(v.Value),
		})
	}
	return reviewers
}

func voteToken(value int) string {
	if value == 1 {
		return "+1"
	}
	return strconv.Itoa(value)
}

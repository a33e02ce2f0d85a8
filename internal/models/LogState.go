package models

import json "github.com/goccy/go-json"

// UrgentPatch is the display shape of a record tagged "urgent".
type UrgentPatch struct {
	ID      int           `json:"id"`
	Subject string        `json:"subject"`
	Owner   string        `json:"owner"`
	Email   string        `json:"email"`
	VScore  VerifiedScore `json:"vScore"`
}

func UrgentIDs(patches []UrgentPatch) []int {
	ids := make([]int, len(patches))
	for i, p := range patches {
		ids[i] = p.ID
	}
	return ids
}

// Slot is one processed fetch cycle. Every field may be absent; a slot is
// complete once timestamp, merged and urgent patches are all present.
type Slot struct {
	Timestamp        Optional[int64]
	Merged           Optional[[]int]
	NewMergedPatches Optional[[]int]
	UrgentPatches    Optional[[]UrgentPatch]
}

func (s Slot) Complete() bool {
	return s.Timestamp.IsSet() && s.Merged.IsSet() && s.UrgentPatches.IsSet()
}

type slotJSON struct {
	Timestamp        *int64         `json:"timestamp,omitempty"`
	Merged           *[]int         `json:"merged,omitempty"`
	NewMergedPatches *[]int         `json:"newMergedPatches,omitempty"`
	UrgentPatches    *[]UrgentPatch `json:"urgentPatches,omitempty"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{
		Timestamp:        s.Timestamp.ptr(),
		Merged:           nonNil(s.Merged.ptr()),
		NewMergedPatches: nonNil(s.NewMergedPatches.ptr()),
		UrgentPatches:    nonNil(s.UrgentPatches.ptr()),
	})
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	var w slotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Slot{
		Timestamp:        optionalFromPtr(w.Timestamp),
		Merged:           optionalFromPtr(nonNil(w.Merged)),
		NewMergedPatches: optionalFromPtr(nonNil(w.NewMergedPatches)),
		UrgentPatches:    optionalFromPtr(nonNil(w.UrgentPatches)),
	}
	return nil
}

// nonNil turns a present-but-nil slice into an empty one so it serializes as [].
func nonNil[T any](p *[]T) *[]T {
	if p != nil && *p == nil {
		empty := make([]T, 0)
		return &empty
	}
	return p
}

type Phase int

const (
	PhaseEmpty Phase = iota
	PhasePartiallyPopulated
	PhasePopulated
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhasePartiallyPopulated:
		return "partially-populated"
	default:
		return "populated"
	}
}

// LogState is the two-slot rolling record of processed cycles.
type LogState struct {
	Latest   Slot `json:"latest"`
	Previous Slot `json:"previous"`
}

// NewLogState returns the canonical empty state {latest:{}, previous:{}}.
func NewLogState() *LogState {
	return &LogState{}
}

func (l *LogState) Phase() Phase {
	switch {
	case !l.Latest.Timestamp.IsSet():
		return PhaseEmpty
	case !l.Previous.Timestamp.IsSet():
		return PhasePartiallyPopulated
	default:
		return PhasePopulated
	}
}

// Rotate demotes latest to previous and installs next as latest.
func (l *LogState) Rotate(next Slot) {
	l.Previous = l.Latest
	l.Latest = next
}

// Timestamps returns the timestamps referenced by the state, latest first.
func (l *LogState) Timestamps() []int64 {
	var out []int64
	if ts, ok := l.Latest.Timestamp.Get(); ok {
		out = append(out, ts)
	}
	if ts, ok := l.Previous.Timestamp.Get(); ok {
		out = append(out, ts)
	}
	return out
}

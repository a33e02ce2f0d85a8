package models

type DeltaType string

const (
	DeltaUrgent       DeltaType = "Urgent"
	DeltaFull         DeltaType = "Full"
	DeltaInsufficient DeltaType = "Insufficient"
)

// Reviewer is a Code-Review vote prepared for display.
type Reviewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Value string `json:"value"`
}

// DeltaEntry identifies one classified patch. Merge entries in full mode
// carry only the id.
type DeltaEntry struct {
	ID        int           `json:"id"`
	Subject   string        `json:"subject,omitempty"`
	Owner     string        `json:"owner,omitempty"`
	Email     string        `json:"email,omitempty"`
	VScore    VerifiedScore `json:"vScore"`
	Reviewers []Reviewer    `json:"reviewers,omitempty"`
}

func EntryFromPatch(p UrgentPatch) DeltaEntry {
	return DeltaEntry{
		ID:      p.ID,
		Subject: p.Subject,
		Owner:   p.Owner,
		Email:   p.Email,
		VScore:  p.VScore,
	}
}

type DeltaResult struct {
	Type              DeltaType    `json:"type"`
	Count             int          `json:"count"`
	Timestamp         int64        `json:"timestamp,omitempty"`
	PreviousTimestamp int64        `json:"previousTimestamp,omitempty"`
	Add               []DeltaEntry `json:"add"`
	Drop              []DeltaEntry `json:"drop"`
	Merge             []DeltaEntry `json:"merge"`
}

// InsufficientHistory is returned while fewer than two complete cycles exist.
// It is distinct from a comparison that found nothing.
func InsufficientHistory() *DeltaResult {
	return &DeltaResult{
		Type:  DeltaInsufficient,
		Add:   []DeltaEntry{},
		Drop:  []DeltaEntry{},
		Merge: []DeltaEntry{},
	}
}

func (d *DeltaResult) IsInsufficient() bool {
	return d == nil || d.Type == DeltaInsufficient
}

func (d *DeltaResult) recount() {
	d.Count = len(d.Add) + len(d.Drop) + len(d.Merge)
}

func NewDeltaResult(t DeltaType, add, drop, merge []DeltaEntry) *DeltaResult {
	d := &DeltaResult{Type: t, Add: add, Drop: drop, Merge: merge}
	if d.Add == nil {
		d.Add = []DeltaEntry{}
	}
	if d.Drop == nil {
		d.Drop = []DeltaEntry{}
	}
	if d.Merge == nil {
		d.Merge = []DeltaEntry{}
	}
	d.recount()
	return d
}

// Notification is what a cycle hands to its notifiers.
type Notification struct {
	CycleID   string
	Timestamp int64
	Delta     *DeltaResult
	Urgent    []UrgentPatch
}

package model

import "time"

// Item types.
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// Partition names a record collection. A record lives in exactly one.
type Partition string

// Partitions.
const (
	PartitionActive  Partition = "active"
	PartitionClaimed Partition = "claimed"
	PartitionDeleted Partition = "deleted"
)

// Record defaults.
const (
	DefaultCategory = "Misc"
	DefaultLocation = "Unknown"
	Anonymous       = "Anonymous"
)

// DateLayout is the calendar date format of Record.Date.
const DateLayout = "2006-01-02"

// Record is a reported lost or found item. Claim and Verification are
// flattened into the JSON object when set, so a stored record has the same
// shape whether it sits in the active list, the claimed list or the bin.
type Record struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	ImageRef    string     `json:"imageRef,omitempty"`
	PostedBy    string     `json:"postedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`

	*Claim
	*Verification
}

// Claim records who took an item off the active list.
type Claim struct {
	ClaimedBy string    `json:"claimedBy"`
	ClaimedAt time.Time `json:"claimedAt"`
}

// Verification is a staff attestation on a claimed item.
type Verification struct {
	VerifiedBy string    `json:"verifiedBy"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		r.DeletedAt = &t
	}
	if r.Claim != nil {
		c := *r.Claim
		r.Claim = &c
	}
	if r.Verification != nil {
		v := *r.Verification
		r.Verification = &v
	}
	return r
}

// Claimant returns the claiming username, or "" if unclaimed.
func (r Record) Claimant() string {
	if r.Claim == nil {
		return ""
	}
	return r.Claim.ClaimedBy
}

// Verified reports whether the record carries a verification.
func (r Record) Verified() bool {
	return r.Verification != nil
}

// Patch is the set of fields an edit may change. Nil fields are left as is.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply copies the non-nil patch fields onto r.
func (p Patch) Apply(r *Record) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
}

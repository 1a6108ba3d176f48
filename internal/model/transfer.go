package model

import "time"

// Transition operations.
const (
	OpReport   = "report"
	OpSample   = "sample"
	OpClaim    = "claim"
	OpEdit     = "edit"
	OpVerify   = "verify"
	OpUnverify = "unverify"
	OpDelete   = "delete"
	OpRestore  = "restore"
	OpPurge    = "purge"
)

// Transition is one entry of a record's history.
type Transition struct {
	RecordID string    `json:"recordId"`
	Op       string    `json:"op"`
	From     Partition `json:"from,omitempty"`
	To       Partition `json:"to,omitempty"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
}

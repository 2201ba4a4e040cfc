package domain

import "time"

// Document is a generated artifact (booking confirmation or summary report).
// Key is the external key it is stored under: the booking id for
// confirmations, Summary.Key for summaries.
type Document struct {
	Key       string
	Filename  string
	Path      string
	Data      []byte
	CreatedAt time.Time
}

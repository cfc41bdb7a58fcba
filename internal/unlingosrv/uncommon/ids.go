package uncommon

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const blobIdLen = 21

// NewBlobId returns a new opaque blob identifier. Uniqueness is probabilistic;
// the object store checks for collisions on insert.
func NewBlobId() string {
	id, err := gonanoid.New(blobIdLen)
	if err != nil {
		// gonanoid only fails when the OS entropy source does
		panic(err)
	}
	return "blb_" + id
}

// NewIdentityRef returns an identifier used to reference a project's external
// API identity.
func NewIdentityRef() string {
	id, err := gonanoid.New(blobIdLen)
	if err != nil {
		panic(err)
	}
	return "idn_" + id
}

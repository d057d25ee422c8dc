package id

import (
	cryptoRand "crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var epoch = time.Unix(0, 0)

var (
	mu      sync.Mutex
	entropy io.Reader = ulid.Monotonic(cryptoRand.Reader, 0)
)

// New returns a ULID for the current time. IDs from one process sort in
// generation order, including several within the same millisecond.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID carrying t as its timestamp. Trade records use the bar
// time so the log sorts by simulated time rather than wall time.
func NewAt(t time.Time) string {
	if t.Before(epoch) {
		t = epoch
	}

	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(t.UTC()), entropy)
	if err != nil {
		// monotonic entropy overflowed within one millisecond
		v, err = ulid.New(ulid.Timestamp(t.UTC()), cryptoRand.Reader)
		if err != nil {
			panic(err)
		}
	}
	return v.String()
}

// Valid reports whether s is a well-formed ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

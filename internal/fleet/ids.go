package fleet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// IDGenerator mints action ids. Implementations must be safe for
// concurrent use. Ids only need to be unique for the life of the
// process; they are never persisted.
type IDGenerator interface {
	NewID() string
}

// timestampGenerator produces ids of the form <unix-milli>-<hex suffix>.
// The random suffix makes collisions within one millisecond negligible,
// though not impossible; the mailbox contract accepts that.
type timestampGenerator struct{}

func (timestampGenerator) NewID() string {
	suffix := make([]byte, 6)
	rand.Read(suffix)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// NewIDGenerator returns the default timestamp-plus-suffix generator.
func NewIDGenerator() IDGenerator {
	return timestampGenerator{}
}

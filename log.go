package pathoram

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// nopLogger is the client's default logger until one is set via SetLogger,
// mirroring the nil-safe global-logger pattern zoekt's log package uses
// (Get returns a usable logger even before Init has run).
var nopLogger = zap.NewNop()

// newAccessID returns a fresh correlation id for one access() call, so the
// read-path and write-path log lines it produces can be tied together
// without revealing which key was touched.
func newAccessID() string {
	return uuid.NewString()
}

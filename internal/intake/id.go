package intake

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var idReplacer = strings.NewReplacer(":", "-", ".", "-")

// NewID returns a sortable record id: the UTC submission instant followed by a random UUID,
// e.g. 2026-10-18T09-00-00-000Z_8d0c....
func NewID(now time.Time) string {
	return idReplacer.Replace(now.UTC().Format("2006-01-02T15:04:05.000Z")) + "_" + uuid.NewString()
}

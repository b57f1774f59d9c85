package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier. Used for request
// correlation and audit entries; persistent entities keep numeric keys.
func New() string {
	return ulid.Make().String()
}

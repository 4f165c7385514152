package util

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// imageNamespace scopes content-derived names so they never collide with
// UUIDs derived from other namespaces.
var imageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("imgsave.go/image"))

// ContentHash is a quick non-cryptographic digest of an encoded file
func ContentHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// ContentHashHex formats ContentHash as 16 hex digits.
func ContentHashHex(data []byte) string {
	return fmt.Sprintf("%016x", ContentHash(data))
}

// HashUUID returns a stable name-based UUID for data: identical bytes give
// identical names.
func HashUUID(data []byte) string {
	return uuid.NewSHA1(imageNamespace, data).String()
}

// OutputName joins HashUUID(data) with ext, e.g. "6f1c...-....png".
func OutputName(data []byte, ext string) string {
	return HashUUID(data) + ext
}

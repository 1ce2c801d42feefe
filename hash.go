package blocktl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text. It fingerprints a
// document's source content so a pending translation can be checked against
// later edits.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// LocalizedID returns the identifier of a document's localized copy.
func LocalizedID(documentID, lang string) string {
	return documentID + "-" + NormalizeLanguage(lang)
}

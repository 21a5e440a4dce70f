package ingestion

import (
	"strings"

	"github.com/adityaraj-09/insien-editor/merkle"
)

// ComputeLocalHash derives the stable project identity for a local folder.
// The absolute path is lower-cased and back-slashes become forward slashes, so
// the same folder hashes identically across platforms and path spellings.
// Renaming or moving the folder mints a fresh identity on purpose.
func ComputeLocalHash(userID, folderPath, folderName string) string {
	normalized := strings.ToLower(strings.ReplaceAll(folderPath, "\\", "/"))
	return merkle.HashBytes(userID + ":" + normalized + ":" + folderName)
}

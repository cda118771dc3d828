package storage

import (
	"fmt"
	"path"
	"strings"

	"interndesk/internal/models"
)

// NormalizePermissionPath converts a stored permission-document path to a
// slash-separated path relative to the upload root. Records imported from the
// previous system stored Windows separators and sometimes prefixed the upload
// directory itself.
func NormalizePermissionPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")

	// Older records embedded the root directory in the stored path.
	for _, prefix := range []string{"uploads/", "static/uploads/"} {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}

	// Bare filenames belong to the permission subdirectory.
	if !strings.Contains(p, "/") {
		p = permissionSubdir + "/" + p
	}
	return p
}

// GeneratedFilename returns the canonical offer letter filename for a record.
func GeneratedFilename(id string) string {
	return fmt.Sprintf("offer_%s.pdf", id)
}

// CandidateFilenames lists letter filenames to probe for a record, most
// specific first: the stored filename, then the canonical name, then the
// naming schemes used by earlier revisions of the system.
func CandidateFilenames(rec *models.InternshipRequest) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if rec.GeneratedLetterFilename != nil {
		add(*rec.GeneratedLetterFilename)
	}

	ids := []string{rec.ID}
	if rec.LegacyRef != "" {
		ids = append(ids, rec.LegacyRef)
	}
	for _, id := range ids {
		add(fmt.Sprintf("offer_%s.pdf", id))
		add(fmt.Sprintf("internship_%s.pdf", id))
		add(fmt.Sprintf("letter_%s.pdf", id))
		add(fmt.Sprintf("%s.pdf", id))
	}
	return names
}

package drive

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
	gdrive "google.golang.org/api/drive/v3"
)

// Resolver finds or creates Drive folders by (name, parent). Concurrent
// calls for the same key collapse into one lookup/create through the
// singleflight group, so two requests racing on a new folder name cannot
// both create it within this process.
type Resolver struct {
	api   API
	group singleflight.Group
}

// NewResolver returns a Resolver backed by the given Drive API.
func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

// FindOrCreateFolder returns the id of the non-trashed folder named name
// under parentID (or at the root when parentID is empty), creating it when
// absent. Newly created folders are granted anyone/reader; folders found
// by lookup keep whatever permissions they already have.
func (r *Resolver) FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := parentID + "/" + name
	id, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, name, parentID)
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("mimeType = '%s' and name = '%s' and trashed = false",
		folderMIMEType, escapeQueryValue(name))
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	folders, err := r.api.ListFolders(ctx, query)
	if err != nil {
		return "", fmt.Errorf("look up folder %q: %w", name, err)
	}
	if len(folders) > 0 {
		// duplicates are possible if created outside this process; take
		// whatever the service returns first
		return folders[0].Id, nil
	}

	folder := &gdrive.File{
		Name:     name,
		MimeType: folderMIMEType,
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	id, err := r.api.CreateFile(ctx, folder, nil)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	if err := r.api.GrantAnyoneRead(ctx, id); err != nil {
		return "", fmt.Errorf("grant public access on folder %q: %w", name, err)
	}
	return id, nil
}

// escapeQueryValue escapes single quotes and backslashes for Drive query strings.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

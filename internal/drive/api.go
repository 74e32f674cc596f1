package drive

import (
	"context"
	"errors"
	"fmt"
	"io"

	gdrive "google.golang.org/api/drive/v3"
)

// folderMIMEType marks a Drive object as a folder container.
const folderMIMEType = "application/vnd.google-apps.folder"

// API is the subset of the Drive v3 surface this service touches. The
// builder-style SDK calls live behind it so the resolver and uploader can
// be unit-tested against fakes.
type API interface {
	// CreateFile creates a file (content may be nil for folders) and
	// returns the server-assigned object id.
	CreateFile(ctx context.Context, file *gdrive.File, content io.Reader) (string, error)
	// ListFolders runs a files.list query and returns the matches.
	ListFolders(ctx context.Context, query string) ([]*gdrive.File, error)
	// GrantAnyoneRead assigns the {role: reader, type: anyone} permission.
	GrantAnyoneRead(ctx context.Context, fileID string) error
}

type serviceAPI struct {
	svc *gdrive.Service
}

// NewAPI wraps a concrete Drive service in the API interface.
func NewAPI(svc *gdrive.Service) API {
	return &serviceAPI{svc: svc}
}

func (a *serviceAPI) CreateFile(ctx context.Context, file *gdrive.File, content io.Reader) (string, error) {
	call := a.svc.Files.Create(file).Fields("id").Context(ctx)
	if content != nil {
		call = call.Media(content)
	}
	created, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("files.create: %w", err)
	}
	if created.Id == "" {
		return "", errors.New("drive returned an empty file id")
	}
	return created.Id, nil
}

func (a *serviceAPI) ListFolders(ctx context.Context, query string) ([]*gdrive.File, error) {
	res, err := a.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("files.list: %w", err)
	}
	return res.Files, nil
}

func (a *serviceAPI) GrantAnyoneRead(ctx context.Context, fileID string) error {
	perm := &gdrive.Permission{Role: "reader", Type: "anyone"}
	if _, err := a.svc.Permissions.Create(fileID, perm).Context(ctx).Do(); err != nil {
		return fmt.Errorf("permissions.create: %w", err)
	}
	return nil
}

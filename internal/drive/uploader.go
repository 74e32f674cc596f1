package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gdrive "google.golang.org/api/drive/v3"
)

const (
	// transactionsFolderName is the root folder for dated transaction images.
	transactionsFolderName = "transactions"
	// transactionImagePrefix is the fixed file-name prefix ("image" in Vietnamese).
	transactionImagePrefix = "hình"
	// dateTagLayout renders DDMMYY, e.g. 161125 for 2025-11-16.
	dateTagLayout = "020106"
)

// viewURL is the public link format callers embed directly in <img> tags.
// Changing the shape breaks existing clients.
func viewURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

// Uploader pushes image payloads to Drive and makes them publicly readable.
type Uploader struct {
	api     API
	folders *Resolver
	nowFunc func() time.Time
}

// NewUploader returns an Uploader backed by the given Drive API.
func NewUploader(api API) *Uploader {
	return &Uploader{
		api:     api,
		folders: NewResolver(api),
		nowFunc: time.Now,
	}
}

// UploadImage stores the payload at the Drive root under a timestamped
// name and returns the public view URL.
func (u *Uploader) UploadImage(ctx context.Context, content io.Reader, originalName, mimeType string) (string, error) {
	name := fmt.Sprintf("product_%d_%s", u.nowFunc().UnixMilli(), originalName)

	fileID, err := u.api.CreateFile(ctx, &gdrive.File{Name: name, MimeType: mimeType}, content)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", name, err)
	}
	if err := u.api.GrantAnyoneRead(ctx, fileID); err != nil {
		return "", fmt.Errorf("grant public access on %q: %w", name, err)
	}
	return viewURL(fileID), nil
}

// UploadTransactionImage stores the payload under transactions/<dateTag>/,
// creating both folders when absent. dateTag defaults to today's date as
// DDMMYY; imageNumber defaults to "1". Returns the view URL and the
// logical path transactions/<dateTag>/<fileName> (informational only, not
// a real storage path).
func (u *Uploader) UploadTransactionImage(ctx context.Context, content io.Reader, mimeType, dateTag, imageNumber string) (url, path string, err error) {
	if dateTag == "" {
		dateTag = u.nowFunc().Format(dateTagLayout)
	}
	if imageNumber == "" {
		imageNumber = "1"
	}

	rootID, err := u.folders.FindOrCreateFolder(ctx, transactionsFolderName, "")
	if err != nil {
		return "", "", err
	}
	dateID, err := u.folders.FindOrCreateFolder(ctx, dateTag, rootID)
	if err != nil {
		return "", "", err
	}

	fileName := fmt.Sprintf("%s_%s.%s", transactionImagePrefix, imageNumber, extensionForMIME(mimeType))
	file := &gdrive.File{
		Name:     fileName,
		MimeType: mimeType,
		Parents:  []string{dateID},
	}
	fileID, err := u.api.CreateFile(ctx, file, content)
	if err != nil {
		return "", "", fmt.Errorf("upload %q: %w", fileName, err)
	}
	if err := u.api.GrantAnyoneRead(ctx, fileID); err != nil {
		return "", "", fmt.Errorf("grant public access on %q: %w", fileName, err)
	}

	path = transactionsFolderName + "/" + dateTag + "/" + fileName
	return viewURL(fileID), path, nil
}

// extensionForMIME derives a file extension from the MIME subtype,
// normalizing image/jpeg to the conventional jpg.
func extensionForMIME(mimeType string) string {
	ext := mimeType
	if i := strings.Index(mimeType, "/"); i >= 0 {
		ext = mimeType[i+1:]
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext
}

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/randx"
)

const (
	// MaxAvatarSizeMB is the maximum avatar size in megabytes.
	MaxAvatarSizeMB = 2

	// MaxAvatarSize is the maximum avatar size in bytes.
	MaxAvatarSize = MaxAvatarSizeMB * 1024 * 1024

	// PresignedURLDuration is how long an upload URL stays valid.
	PresignedURLDuration = 5 * time.Minute

	avatarPrefix = "avatars"
)

// extToMIME lists the accepted avatar extensions and the MIME type each must be uploaded with.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateAvatar checks the declared size, MIME type and file extension of an avatar upload.
func ValidateAvatar(fileName, mimeType string, fileSize int64) *errs.CustomError {
	if fileSize <= 0 || fileSize > MaxAvatarSize {
		return errs.NewError(errs.ErrAvatarFileInvalid, MaxAvatarSizeMB)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expected, ok := extToMIME[ext]
	if !ok || expected != strings.ToLower(mimeType) {
		return errs.NewError(errs.ErrAvatarFileInvalid, MaxAvatarSizeMB)
	}

	return nil
}

// AvatarKey returns a fresh object key for an avatar of userID, keeping the file extension.
func AvatarKey(userID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s/%s%s", avatarPrefix, userID, randx.ID(), ext)
}

// IsAvatarKeyOf reports whether key lies in userID's avatar folder.
func IsAvatarKeyOf(key, userID string) bool {
	return strings.HasPrefix(key, avatarPrefix+"/"+userID+"/")
}

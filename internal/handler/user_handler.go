package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"echospace/internal/app/storage"
	"echospace/internal/app/user"
	"echospace/internal/pkg/auth/jwt"
	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/req"
	"echospace/internal/pkg/resp"
)

type UpdateProfileInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
}

// HandleUpdateUserProfile replaces the editable profile fields. When the previous avatar was
// uploaded to our bucket and is being replaced, the old object is deleted in the background.
func HandleUpdateUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		firstName := strings.TrimSpace(input.FirstName)
		lastName := strings.TrimSpace(input.LastName)
		avatar := strings.TrimSpace(input.Avatar)

		if customErr := validateName(firstName, lastName); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := validateAvatarURL(avatar); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		oldUser, customErr := loadIdentityUser(deps, r, identity)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, err := deps.Users.UpdateProfile(r.Context(), oldUser.ID, user.ProfileParams{
			FirstName: firstName,
			LastName:  lastName,
			AvatarURL: avatar,
		})
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		if oldUser.AvatarURL != "" && oldUser.AvatarURL != updated.AvatarURL {
			deps.deleteOwnedAvatar(oldUser.ID, oldUser.AvatarURL)
		}

		resp.RespondSuccess(w, r, UserResponse{User: updated.Profile()})
	}
}

// deleteOwnedAvatar removes an avatar object we stored for userID. URLs pointing elsewhere,
// such as the stock avatar options, are left alone.
func (d *AppDeps) deleteOwnedAvatar(userID, avatarURL string) {
	if d.Storage == nil {
		return
	}

	key, ok := d.Storage.KeyFromURL(avatarURL)
	if !ok || !storage.IsAvatarKeyOf(key, userID) {
		return
	}

	go func(k string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Storage.Delete(ctx, k); err != nil {
			logx.Error(err, "update_profile: failed to delete previous avatar", "key", k)
		}
	}(key)
}

type PresignAvatarInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

type PresignAvatarResponse struct {
	PresignedURL string `json:"presignedUrl"`
	FileKey      string `json:"fileKey"`
	PublicURL    string `json:"publicUrl"`
}

// HandlePresignAvatarURL returns a time-limited upload URL for a new avatar image and the
// public URL the image will have once uploaded.
func HandlePresignAvatarURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageNotConfigured))
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		var input PresignAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateAvatar(input.FileName, input.MimeType, input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey := storage.AvatarKey(identity.ID, input.FileName)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			strings.ToLower(input.MimeType),
			input.FileSize,
			storage.PresignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		resp.RespondSuccess(w, r, PresignAvatarResponse{
			PresignedURL: url,
			FileKey:      fileKey,
			PublicURL:    deps.Storage.PublicURL(fileKey),
		})
	}
}

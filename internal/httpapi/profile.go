package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gatehouse-io/gatehouse/pkg/profile"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
)

func (d Deps) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := d.Profiles.Get(r.Context(), currentUserID(r))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (d Deps) updateProfile(w http.ResponseWriter, r *http.Request) {
	var params profile.UpdateParams
	if err := decodeJSON(r, &params); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	p, err := d.Profiles.Update(r.Context(), currentUserID(r), params)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// uploadAvatar accepts a multipart form with an "avatar" field. The body
// is capped slightly above the image limit so oversized uploads fail with
// a clear 413 from validation instead of an opaque connection error.
func (d Deps) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxAvatarSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 2 MiB limit")
			return
		}
		respondError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxAvatarSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	avatarURL, err := d.Avatars.Upload(r.Context(), userID, data)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	p, err := d.Profiles.SetAvatar(r.Context(), userID, avatarURL)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

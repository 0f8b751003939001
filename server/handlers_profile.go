package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/notify"
	"github.com/rs/zerolog/log"
)

type ProfilePageData struct {
	Profile api.Profile
	Editing bool
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		profile, err := s.client(b).Profile(r.Context())
		if err != nil {
			log.Err(err).Msg("Profile: failed to load")
			b.toasts.Notify(toastError("Error loading profile"))
		}
		s.render(w, r, b, "profile.html", "Profile", ProfilePageData{
			Profile: profile,
			Editing: r.URL.Query().Get("edit") == "1",
		})
	}
}

// UpdateProfileHandler replaces the profile from the multipart form (POST /profile).
// A new picture replaces the old one; "remove_image" clears it; otherwise the picture is kept.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		update := api.ProfileUpdate{
			FullName:   r.FormValue("full_name"),
			Bio:        r.FormValue("bio"),
			ClearImage: r.FormValue("remove_image") == "on",
		}
		if f, header, err := r.FormFile("image"); err == nil {
			defer f.Close()
			update.Image = &api.Upload{Filename: header.Filename, Content: f}
		}

		if _, err := s.client(b).UpdateProfile(r.Context(), update); err != nil {
			log.Err(err).Msg("Profile: update failed")
			b.toasts.Notify(toastError("Error: " + api.Detail(err, "Failed to update profile")))
			s.redirect(w, r, b, RouteProfile+"?edit=1")
			return
		}
		b.toasts.Notify(notify.Success("Profile Updated", 6*time.Second))
		s.redirect(w, r, b, RouteProfile)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/forms"
	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/services"
	"github.com/camden-git/dancereg/validation"
)

type PersonHandler struct {
	Service       *services.PersonService
	Forms         *forms.Renderer
	MaxUploadSize int64
}

// personResponse adds the display name and public image URLs to a person.
type personResponse struct {
	*models.Person
	FullName        string `json:"fullName"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

func (ph *PersonHandler) respond(r *http.Request, p *models.Person) personResponse {
	resp := personResponse{Person: p, FullName: p.DisplayName(i18n.FromContext(r.Context()))}
	if ph.Forms != nil {
		if p.ProfileImage != nil {
			resp.ProfileImageURL = ph.Forms.AssetURL(*p.ProfileImage)
		}
		if p.ProfileThumbnail != nil {
			resp.ThumbnailURL = ph.Forms.AssetURL(*p.ProfileThumbnail)
		}
	}
	return resp
}

func (ph *PersonHandler) respondAll(r *http.Request, people []models.Person) []personResponse {
	out := make([]personResponse, 0, len(people))
	for i := range people {
		out = append(out, ph.respond(r, &people[i]))
	}
	return out
}

func (ph *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r, ph.MaxUploadSize)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	person, err := ph.Service.Create(r.Context(), in, scenarioParam(r, validation.ScenarioCreate))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ph.respond(r, person))
}

// ListPeople supports ?search=, ?dancing_role=, ?couple= and ?sort=.
func (ph *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.PeopleFilter{
		Search:      strings.TrimSpace(q.Get("search")),
		DancingRole: strings.TrimSpace(q.Get("dancing_role")),
	}
	if raw := q.Get("couple"); raw != "" {
		couple, ok := validation.ParseBool(raw)
		if !ok {
			WriteAPIError(w, http.StatusBadRequest, codeBadRequest, "couple must be 1, 0, true or false")
			return
		}
		filter.Couple = &couple
	}
	sortOrder := q.Get("sort")
	if sortOrder == "" {
		sortOrder = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(sortOrder) {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, "unknown sort order "+sortOrder)
		return
	}

	people, err := ph.Service.List(r.Context(), filter, sortOrder)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respondAll(r, people))
}

func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	person, err := ph.Service.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respond(r, person))
}

func (ph *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	in, err := readInput(r, ph.MaxUploadSize)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	person, err := ph.Service.Update(r.Context(), id, in, scenarioParam(r, validation.ScenarioUpdate))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respond(r, person))
}

// BulkEditPeople expects the target ids in "ids" (comma separated or a JSON array)
// next to the attributes to apply.
func (ph *PersonHandler) BulkEditPeople(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r, ph.MaxUploadSize)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	ids, err := parseIDs(in.Values["ids"])
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	delete(in.Values, "ids")

	people, err := ph.Service.BulkEdit(r.Context(), ids, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respondAll(r, people))
}

func (ph *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := ph.Service.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadProfileImage reads the multipart "profile_image" file.
func (ph *PersonHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, ph.MaxUploadSize+multipartMemory)
	var upload *media.Upload
	if err := r.ParseMultipartForm(multipartMemory); err == nil {
		if headers := r.MultipartForm.File[metadata.AttrProfileImage]; len(headers) > 0 {
			if upload, err = media.UploadFromMultipart(headers[0], ph.MaxUploadSize); err != nil {
				WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
				return
			}
		}
	} else if !errors.Is(err, http.ErrNotMultipart) {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	person, err := ph.Service.UploadProfileImage(r.Context(), id, upload)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respond(r, person))
}

func (ph *PersonHandler) DeleteProfileImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	person, err := ph.Service.DeleteImage(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ph.respond(r, person))
}

func (ph *PersonHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	addr, err := ph.Service.GetAddress(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (ph *PersonHandler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	in, err := readInput(r, ph.MaxUploadSize)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	addr, err := ph.Service.SaveAddress(r.Context(), id, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// PersonForm renders the edit partial for ?scenario= (default update).
func (ph *PersonHandler) PersonForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "person_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	person, err := ph.Service.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	html, err := ph.Forms.Person(r.Context(), forms.PersonForm{
		Descriptor: ph.Service.Descriptor(),
		Person:     person,
		Scenario:   scenarioParam(r, validation.ScenarioUpdate),
	})
	writeHTML(w, r, html, err)
}

func writeHTML(w http.ResponseWriter, r *http.Request, html string, err error) {
	if err != nil {
		var unknown *forms.UnknownScenarioError
		if errors.As(err, &unknown) {
			WriteAPIError(w, http.StatusBadRequest, services.TextCodeInvalidScenario, err.Error())
			return
		}
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

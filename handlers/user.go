package handlers

import (
	"net/http"
	"strconv"

	"github.com/camden-git/dancereg/forms"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/services"
	"github.com/camden-git/dancereg/validation"
)

type UserHandler struct {
	Service *services.UserService
	Forms   *forms.Renderer
}

func (uh *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r, 0)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	user, err := uh.Service.Create(r.Context(), in, scenarioParam(r, validation.ScenarioCreate))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (uh *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "user_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	user, err := uh.Service.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (uh *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "user_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	in, err := readInput(r, 0)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	user, err := uh.Service.Update(r.Context(), id, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// AccountForm renders the account partial for ?scenario= (default create), filled from
// ?id= when given.
func (uh *UserHandler) AccountForm(w http.ResponseWriter, r *http.Request) {
	scenario := scenarioParam(r, validation.ScenarioCreate)
	if _, ok := uh.Service.Descriptor().ActiveAttributes(scenario); !ok {
		WriteAPIError(w, http.StatusBadRequest, services.TextCodeInvalidScenario, "unknown scenario "+string(scenario))
		return
	}

	var user *models.User
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, codeBadRequest, "invalid id")
			return
		}
		if user, err = uh.Service.Get(r.Context(), uint(id)); err != nil {
			WriteError(w, r, err)
			return
		}
	}
	groups, err := uh.Service.ListGroups(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	html, err := uh.Forms.Account(r.Context(), forms.AccountForm{
		Descriptor: uh.Service.Descriptor(),
		User:       user,
		Scenario:   scenario,
		Groups:     groups,
	})
	writeHTML(w, r, html, err)
}

// ListTimezones returns the timezone dropdown options.
func ListTimezones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, forms.TimezoneOptions())
}

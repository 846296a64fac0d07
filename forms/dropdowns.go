package forms

import (
	_ "embed"
	"sort"
	"strconv"
	"strings"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/validation"
	"github.com/facette/natsort"
)

//go:embed timezones.txt
var timezoneList string

// Dancing roles offered by the person form.
const (
	DancingRoleLeader   = "leader"
	DancingRoleFollower = "follower"
	DancingRoleEither   = "either"
)

// Option is one entry of a dropdown.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"-"`
}

// StatusOptions lists the account states.
func StatusOptions(tr *i18n.Translator) []Option {
	opts := make([]Option, 0, len(models.UserStatuses))
	for _, s := range models.UserStatuses {
		opts = append(opts, Option{Value: strconv.Itoa(int(s)), Label: tr.T("users", s.Label())})
	}
	return opts
}

// CustomerTypeOptions lists the customer types.
func CustomerTypeOptions(tr *i18n.Translator) []Option {
	opts := make([]Option, 0, len(models.CustomerTypes))
	for _, ct := range models.CustomerTypes {
		opts = append(opts, Option{Value: ct, Label: tr.T("users", validation.Humanize(ct))})
	}
	return opts
}

func DancingRoleOptions(tr *i18n.Translator) []Option {
	roles := []string{DancingRoleLeader, DancingRoleFollower, DancingRoleEither}
	opts := make([]Option, 0, len(roles))
	for _, r := range roles {
		opts = append(opts, Option{Value: r, Label: tr.T("users", validation.Humanize(r))})
	}
	return opts
}

func yesNoOptions(tr *i18n.Translator) []Option {
	return []Option{
		{Value: "1", Label: tr.T("application", "Yes")},
		{Value: "0", Label: tr.T("application", "No")},
	}
}

// Timezones returns the embedded IANA zone names, UTC first.
func Timezones() []string {
	var zones []string
	for _, line := range strings.Split(timezoneList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			zones = append(zones, line)
		}
	}
	return zones
}

// TimezoneOptions labels each zone with its name, "_" shown as a space.
func TimezoneOptions() []Option {
	zones := Timezones()
	opts := make([]Option, 0, len(zones))
	for _, z := range zones {
		opts = append(opts, Option{Value: z, Label: strings.ReplaceAll(z, "_", " ")})
	}
	return opts
}

// GroupOptions lists groups by name in natural order, so "Level 2" sorts before "Level 10".
func GroupOptions(groups []models.Group) []Option {
	opts := make([]Option, 0, len(groups))
	for _, g := range groups {
		opts = append(opts, Option{Value: strconv.FormatUint(uint64(g.ID), 10), Label: g.Name})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return natsort.Compare(opts[i].Label, opts[j].Label)
	})
	return opts
}

// selectOptions copies opts, marking the entries whose value is in selected.
func selectOptions(opts []Option, selected ...string) []Option {
	out := make([]Option, len(opts))
	for i, o := range opts {
		o.Selected = false
		for _, s := range selected {
			if o.Value == s {
				o.Selected = true
				break
			}
		}
		out[i] = o
	}
	return out
}

package tenant

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nexussuite/clubcore/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings is a partial update of tenant profile fields. Nil leaves a field unchanged.
type Settings struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
	ClubTag      *string `json:"clubTag" validate:"omitempty,max=12"`
	LogoURL      *string `json:"logoUrl" validate:"omitempty,url"`
	PrimaryColor *string `json:"primaryColor" validate:"omitempty,hexcolor"`
	Website      *string `json:"website" validate:"omitempty,url"`
	Region       *string `json:"region" validate:"omitempty,max=64"`
}

// ParseSettings builds Settings from a loosely typed payload.
func ParseSettings(payload map[string]any) (Settings, error) {
	var s Settings
	targets := map[string]**string{
		"name":         &s.Name,
		"clubTag":      &s.ClubTag,
		"logoUrl":      &s.LogoURL,
		"primaryColor": &s.PrimaryColor,
		"website":      &s.Website,
		"region":       &s.Region,
	}
	if len(payload) == 0 {
		return s, apperr.Invalid("no settings given")
	}
	for key, v := range payload {
		dst, ok := targets[key]
		if !ok {
			return Settings{}, apperr.Invalid("unknown tenant setting %q", key)
		}
		str, ok := v.(string)
		if !ok {
			return Settings{}, apperr.Invalid("tenant setting %q must be a string", key)
		}
		*dst = &str
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, apperr.Invalid("%v", describe(err))
	}
	return s, nil
}

// Apply returns a copy of t with the settings applied.
func (s Settings) Apply(t *Tenant) *Tenant {
	c := *t
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, s.Name)
	set(&c.ClubTag, s.ClubTag)
	set(&c.LogoURL, s.LogoURL)
	set(&c.PrimaryColor, s.PrimaryColor)
	set(&c.Website, s.Website)
	set(&c.Region, s.Region)
	return &c
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	f := verrs[0]
	return fmt.Sprintf("setting %s failed %q", f.Field(), f.Tag())
}

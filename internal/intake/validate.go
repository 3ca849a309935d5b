package intake

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims every text value, defaults the language and drops extension keys that cannot
// become columns or that collide with another key once lowercased. It returns the dropped keys.
func normalize(c *models.Client) []string {
	rv := reflect.ValueOf(c).Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
	c.Language = strings.ToLower(c.Language)
	if c.Language == "" {
		c.Language = "fr"
	}

	if len(c.Extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	// keys equal after lowercasing share a column: the first in sorted order wins
	sort.Strings(keys)
	var dropped []string
	extra := make(map[string]string, len(c.Extra))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, dup := extra[lk]; dup || !models.ValidExtensionKey(lk) {
			dropped = append(dropped, k)
			continue
		}
		extra[lk] = strings.TrimSpace(c.Extra[k])
	}
	c.Extra = extra
	return dropped
}

func (p *Pipeline) check(c *models.Client) error {
	err := p.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	lang := c.Language
	if lang != "en" {
		lang = "fr"
	}
	ve := &apperr.ValidationError{Fields: map[string]string{}, Lang: lang}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fe.Tag()
	}
	return ve
}

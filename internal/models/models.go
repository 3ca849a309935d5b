package models

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SchemaVersion identifies the fixed column set of Client.
const SchemaVersion = 1

// ClientsTable holds one row per submission.
const ClientsTable = "clients"

// Client is one intake submission. The struct is the v1 schema; keys outside it are kept in
// Extra and persisted through reconciled text columns.
type Client struct {
	ID       string `gorm:"primaryKey;size:80" json:"id"`
	Language string `gorm:"size:2;not null;default:fr" json:"language" validate:"omitempty,oneof=fr en"`

	MainDriverName                 string `json:"main_driver_name" validate:"required"`
	MainDriverFirstname            string `json:"main_driver_firstname" validate:"required"`
	MainDriverAddress              string `json:"main_driver_address"`
	MainDriverPostalCode           string `json:"main_driver_postal_code"`
	MainDriverCity                 string `json:"main_driver_city"`
	MainDriverCountry              string `json:"main_driver_country"`
	MainDriverNationality          string `json:"main_driver_nationality"`
	MainDriverBirthDate            string `json:"main_driver_birth_date"`
	MainDriverBirthPlace           string `json:"main_driver_birth_place"`
	MainDriverPhone                string `json:"main_driver_phone"`
	MainDriverEmail                string `json:"main_driver_email"`
	MainDriverLicenseNumber        string `json:"main_driver_license_number"`
	MainDriverLicenseIssueDate     string `json:"main_driver_license_issue_date"`
	MainDriverLicenseValidityDate  string `json:"main_driver_license_validity_date"`
	MainDriverLicenseIssuePlace    string `json:"main_driver_license_issue_place"`
	MainDriverPassportNumber       string `json:"main_driver_passport_number"`
	MainDriverPassportValidityDate string `json:"main_driver_passport_validity_date"`
	MainDriverCreditCard           string `json:"main_driver_credit_card"`
	MainDriverCreditCardExpiry     string `json:"main_driver_credit_card_expiry"`
	MainDriverCreditCardHolder     string `json:"main_driver_credit_card_holder"`

	HasAdditionalDriver                  Flag   `json:"has_additional_driver"`
	AdditionalDriverName                 string `json:"additional_driver_name"`
	AdditionalDriverFirstname            string `json:"additional_driver_firstname"`
	AdditionalDriverAddress              string `json:"additional_driver_address"`
	AdditionalDriverPostalCode           string `json:"additional_driver_postal_code"`
	AdditionalDriverCity                 string `json:"additional_driver_city"`
	AdditionalDriverCountry              string `json:"additional_driver_country"`
	AdditionalDriverNationality          string `json:"additional_driver_nationality"`
	AdditionalDriverBirthDate            string `json:"additional_driver_birth_date"`
	AdditionalDriverBirthPlace           string `json:"additional_driver_birth_place"`
	AdditionalDriverPhone                string `json:"additional_driver_phone"`
	AdditionalDriverEmail                string `json:"additional_driver_email"`
	AdditionalDriverLicenseNumber        string `json:"additional_driver_license_number"`
	AdditionalDriverLicenseIssueDate     string `json:"additional_driver_license_issue_date"`
	AdditionalDriverLicenseValidityDate  string `json:"additional_driver_license_validity_date"`
	AdditionalDriverLicenseIssuePlace    string `json:"additional_driver_license_issue_place"`
	AdditionalDriverPassportNumber       string `json:"additional_driver_passport_number"`
	AdditionalDriverPassportValidityDate string `json:"additional_driver_passport_validity_date"`

	HasAdditionalCreditCard    Flag   `json:"has_additional_credit_card"`
	AdditionalCreditCard       string `json:"additional_credit_card"`
	AdditionalCreditCardExpiry string `json:"additional_credit_card_expiry"`
	AdditionalCreditCardHolder string `json:"additional_credit_card_holder"`

	AcceptTerms          Flag `json:"accept_terms"`
	AcceptFines          Flag `json:"accept_fines"`
	AcceptDataProcessing Flag `json:"accept_data_processing"`

	SignatureDate string `json:"signature_date"`
	SignatureName string `json:"signature_name"`
	SignatureData string `gorm:"type:text" json:"signature_data"`

	SubmissionDate time.Time `gorm:"index" json:"submission_date"`

	Extra map[string]string `gorm:"-" json:"-"`
}

func (Client) TableName() string { return ClientsTable }

// IsEnglish selects the English text table; anything else renders in French.
func (c *Client) IsEnglish() bool { return c.Language == "en" }

// FullName is "name firstname", the order used on the paper form.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.MainDriverName + " " + c.MainDriverFirstname)
}

// ExtraKeys returns the extension keys in sorted order.
func (c *Client) ExtraKeys() []string {
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	knownKeys  = jsonKeys(reflect.TypeOf(Client{}), false)
	stringKeys = jsonKeys(reflect.TypeOf(Client{}), true)

	// legacy form field names mapped onto v1 keys
	keyAliases = map[string]string{
		"has_additional_card": "has_additional_credit_card",
	}

	extensionKey = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)
)

func jsonKeys(t reflect.Type, onlyStrings bool) map[string]bool {
	keys := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if onlyStrings && f.Type.Kind() != reflect.String {
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag != "" && tag != "-" {
			keys[tag] = true
		}
	}
	return keys
}

// IsKnownKey reports whether key belongs to the v1 schema.
func IsKnownKey(key string) bool { return knownKeys[key] }

// ValidExtensionKey reports whether key can become a column name.
func ValidExtensionKey(key string) bool { return extensionKey.MatchString(key) && !knownKeys[key] }

// MarshalJSON flattens Extra next to the v1 keys, the shape stored rows have always had.
func (c Client) MarshalJSON() ([]byte, error) {
	type plain Client
	b, err := json.Marshal(plain(c))
	if err != nil || len(c.Extra) == 0 {
		return b, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes v1 keys into fields and collects every other key into Extra as text.
func (c *Client) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for alias, key := range keyAliases {
		if v, ok := raw[alias]; ok {
			if _, set := raw[key]; !set {
				raw[key] = v
			}
			delete(raw, alias)
		}
	}
	known := map[string]json.RawMessage{}
	extra := map[string]string{}
	for k, v := range raw {
		if knownKeys[k] {
			if stringKeys[k] && !isJSONString(v) {
				// numbers and booleans typed into text inputs
				txt, _ := rawText(v)
				v, _ = json.Marshal(txt)
			}
			known[k] = v
			continue
		}
		if s, ok := rawText(v); ok {
			extra[k] = s
		}
	}
	if v, ok := known["submission_date"]; ok {
		var ts time.Time
		if json.Unmarshal(v, &ts) != nil {
			delete(known, "submission_date")
		}
	}
	kb, err := json.Marshal(known)
	if err != nil {
		return err
	}
	type plain Client
	var p plain
	if err := json.Unmarshal(kb, &p); err != nil {
		return err
	}
	*c = Client(p)
	if len(extra) > 0 {
		c.Extra = extra
	}
	return nil
}

func isJSONString(v json.RawMessage) bool {
	t := strings.TrimSpace(string(v))
	return len(t) > 0 && t[0] == '"'
}

// rawText renders a JSON value as column text; null is dropped.
func rawText(v json.RawMessage) (string, bool) {
	var val interface{}
	if err := json.Unmarshal(v, &val); err != nil {
		return "", false
	}
	switch t := val.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return string(v), true
	}
}

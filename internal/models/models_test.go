package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientUnmarshalCollectsExtensionKeys(t *testing.T) {
	body := `{
		"main_driver_name": "Tane",
		"main_driver_firstname": "Hiro",
		"language": "fr",
		"accept_data_processing": true,
		"has_additional_driver": "on",
		"has_additional_card": true,
		"flight_number": "VT 401",
		"luggage_count": 2,
		"child_seat": false,
		"notes": null
	}`
	var c Client
	require.NoError(t, json.Unmarshal([]byte(body), &c))

	assert.Equal(t, "Tane", c.MainDriverName)
	assert.Equal(t, "Hiro", c.MainDriverFirstname)
	assert.True(t, c.AcceptDataProcessing.Bool())
	assert.True(t, c.HasAdditionalDriver.Bool())
	assert.True(t, c.HasAdditionalCreditCard.Bool(), "has_additional_card is an alias")
	assert.Equal(t, map[string]string{
		"flight_number": "VT 401",
		"luggage_count": "2",
		"child_seat":    "false",
	}, c.Extra)
	assert.Equal(t, []string{"child_seat", "flight_number", "luggage_count"}, c.ExtraKeys())
}

func TestClientMarshalIsFlat(t *testing.T) {
	c := Client{ID: "abc", MainDriverName: "Tane", Extra: map[string]string{"flight_number": "VT 401", "id": "shadowed"}}
	b, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "abc", m["id"], "v1 keys win over extension keys")
	assert.Equal(t, "VT 401", m["flight_number"])
	assert.Equal(t, "Tane", m["main_driver_name"])
	assert.Equal(t, false, m["has_additional_driver"])
}

func TestClientRoundTrip(t *testing.T) {
	in := Client{
		ID:                  "2026-10-18T09-00-00-000Z_x",
		Language:            "en",
		MainDriverName:      "Tane",
		MainDriverFirstname: "Hiro",
		AcceptFines:         true,
		Extra:               map[string]string{"flight_number": "VT 401"},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out Client
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.MainDriverName, out.MainDriverName)
	assert.Equal(t, in.AcceptFines, out.AcceptFines)
	assert.Equal(t, in.Extra, out.Extra)
	assert.True(t, out.IsEnglish())
}

func TestFlagRejectsGarbage(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
	assert.NoError(t, json.Unmarshal([]byte(`"oui"`), &f))
	assert.True(t, f.Bool())
	assert.NoError(t, f.Scan(int64(0)))
	assert.False(t, f.Bool())
}

func TestValidExtensionKey(t *testing.T) {
	assert.True(t, ValidExtensionKey("flight_number"))
	assert.False(t, ValidExtensionKey("main_driver_name"))
	assert.False(t, ValidExtensionKey("1abc"))
	assert.False(t, ValidExtensionKey("drop table;"))
	assert.False(t, ValidExtensionKey("Flight"))
}

func TestJSONBMarshal(t *testing.T) {
	j := NewJSONB(map[string]any{"path": "/tmp/x.pdf"})
	b, err := json.Marshal(struct {
		M JSONB `json:"m"`
	}{j})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":{"path":"/tmp/x.pdf"}}`, string(b))
}

func TestClientUnmarshalCoercesTextFields(t *testing.T) {
	var c Client
	require.NoError(t, json.Unmarshal([]byte(`{"main_driver_name":"Tane","main_driver_postal_code":98735,"main_driver_phone":null,"signature_name":true}`), &c))
	assert.Equal(t, "98735", c.MainDriverPostalCode)
	assert.Equal(t, "", c.MainDriverPhone)
	assert.Equal(t, "true", c.SignatureName)
	assert.Empty(t, c.Extra)
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandards_DecodeForms(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Standards
	}{
		{"array", `{"standards":["ISO 14224","IEC 60812"]}`, Standards{"ISO 14224", "IEC 60812"}},
		{"legacy encoded string", `{"standards":"[\"ISO 14224\"]"}`, Standards{"ISO 14224"}},
		{"legacy empty string", `{"standards":""}`, Standards{}},
		{"legacy plain text", `{"standards":"SAE J1739"}`, Standards{"SAE J1739"}},
		{"null", `{"standards":null}`, Standards{}},
		{"blank entries dropped", `{"standards":["", " ISO 9001 "]}`, Standards{"ISO 9001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asset Asset
			require.NoError(t, json.Unmarshal([]byte(tt.json), &asset))
			assert.Equal(t, tt.want, asset.Standards)
		})
	}
}

func TestStandards_MissingFieldNormalizesToEmpty(t *testing.T) {
	var asset Asset
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","name":"Pump"}`), &asset))

	assert.Nil(t, asset.Standards)
	assert.Equal(t, Standards{}, asset.Standards.Normalize())
}

func TestStandards_EncodesAsArray(t *testing.T) {
	data, err := json.Marshal(struct {
		S Standards `json:"s"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":[]}`, string(data))

	data, err = json.Marshal(Standards{"ISO 14224"})
	require.NoError(t, err)
	assert.Equal(t, `["ISO 14224"]`, string(data))
}

func TestStandards_RejectsWrongType(t *testing.T) {
	var asset Asset
	err := json.Unmarshal([]byte(`{"standards":42}`), &asset)
	assert.Error(t, err)
}

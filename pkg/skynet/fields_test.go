package skynet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	fields := []field{
		required("from-suburb", "FromSuburb"),
		optional("from-city", "FromCity"),
		withDefault("security", "Security", "N"),
	}

	dst := map[string]any{}
	err := apply(dst, Params{"from-suburb": "Brackenfell", "unknown": "ignored"}, fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"FromSuburb": "Brackenfell",
		"FromCity":   nil,
		"Security":   "N",
	}, dst)
}

func TestApply_NilCountsAsAbsent(t *testing.T) {
	dst := map[string]any{}
	err := apply(dst, Params{"from-suburb": nil}, []field{required("from-suburb", "FromSuburb")})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "from-suburb", fieldErr.Field)
}

func TestWaybillFields_WireNamesUnique(t *testing.T) {
	seenParam := map[string]bool{}
	seenWire := map[string]bool{}
	for _, f := range append(append([]field{}, waybillFields...), waybillParcelFields...) {
		assert.False(t, seenParam[f.param], "duplicate param %s", f.param)
		assert.False(t, seenWire[f.wire], "duplicate wire field %s", f.wire)
		seenParam[f.param] = true
		seenWire[f.wire] = true
	}
}

func TestWaybillFields_Defaults(t *testing.T) {
	want := map[string]any{
		"GenerateWaybillNumber": false,
		"InsuranceType":         "1",
		"InsuranceAmount":       "0",
		"Security":              "N",
		"OffSiteCollection":     false,
	}

	for _, f := range waybillFields {
		if def, ok := want[f.wire]; ok {
			assert.False(t, f.required, f.wire)
			assert.Equal(t, def, f.def, f.wire)
			continue
		}
		assert.Nil(t, f.def, "%s should default to null", f.wire)
	}
}

func TestSingleParcel(t *testing.T) {
	parcels, err := singleParcel(Params{
		"parcel-length": 1, "parcel-width": 2, "parcel-height": 3, "parcel-weight": 4,
	}, quoteParcelFields)
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "1", parcels[0]["parcel_number"])
	assert.Equal(t, 2, parcels[0]["parcel_breadth"])
	assert.Equal(t, 4, parcels[0]["parcel_mass"])
}

func TestParams_String(t *testing.T) {
	p := Params{"postal-code": 7560, "suburb": "Brackenfell", "empty": nil}
	assert.Equal(t, "7560", p.String("postal-code"))
	assert.Equal(t, "Brackenfell", p.String("suburb"))
	assert.Equal(t, "", p.String("empty"))
	assert.Equal(t, "", p.String("missing"))
}

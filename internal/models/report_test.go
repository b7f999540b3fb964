package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecomputesDerivedFields(t *testing.T) {
	// 存储中的派生字段不可信，读取后以 verifications 为准
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"id":"report:1","verifications":["a","b","c"],"verifiedCount":1,"isVerified":false}`), &r))
	r.Normalize()

	assert.Equal(t, 3, r.VerifiedCount)
	assert.True(t, r.IsVerified)
	assert.Equal(t, StatusVerified, r.Status())
	assert.NotNil(t, r.Comments)
}

func TestAddVerificationCrossesThreshold(t *testing.T) {
	r := &Report{ID: "report:1", WalletAddress: "owner"}
	r.Normalize()
	assert.Equal(t, StatusPending, r.Status())

	for i, w := range []string{"a", "b", "c"} {
		r.AddVerification(w)
		assert.Equal(t, i+1, r.VerifiedCount)
	}
	assert.True(t, r.IsVerified)
	assert.True(t, r.HasVerified("b"))
	assert.False(t, r.HasVerified("owner"))
}

func TestCloneIsDeep(t *testing.T) {
	lat := -6.2
	r := &Report{ID: "report:1", Latitude: &lat, Verifications: []string{"a"}, Comments: []Comment{{ID: "comment:1"}}}
	c := r.Clone()

	c.AddVerification("b")
	c.Comments = append(c.Comments, Comment{ID: "comment:2"})
	*c.Latitude = 0

	assert.Equal(t, []string{"a"}, r.Verifications)
	assert.Len(t, r.Comments, 1)
	assert.Equal(t, -6.2, *r.Latitude)
}

func TestEmptyReportMarshalsArrays(t *testing.T) {
	r := &Report{ID: "report:1"}
	r.Normalize()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verifications":[]`)
	assert.Contains(t, string(data), `"comments":[]`)
	assert.NotContains(t, string(data), "latitude")
}

func TestCategories(t *testing.T) {
	assert.True(t, CategoryKesehatan.Valid())
	assert.False(t, Category("politik").Valid())
	assert.Equal(t, "politik", Category("politik").Label())
	assert.Len(t, Categories(), 6)
}

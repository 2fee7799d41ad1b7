package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "kesher/pkg/domain-errors"
)

type FieldSchemaSuite struct {
	suite.Suite
}

func TestFieldSchemaSuite(t *testing.T) {
	suite.Run(t, new(FieldSchemaSuite))
}

func rawChanges(t *testing.T, jsonBody string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(jsonBody), &raw))
	return raw
}

func (s *FieldSchemaSuite) TestParseChanges_TypedValues() {
	changes, err := ParseChanges(rawChanges(s.T(), `{
		"age": 31,
		"about_me": "learning and working",
		"has_children": false,
		"gender": "female"
	}`))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), FieldValue{Kind: KindInt, Int: 31}, changes["age"])
	assert.Equal(s.T(), FieldValue{Kind: KindString, Str: "learning and working"}, changes["about_me"])
	assert.Equal(s.T(), FieldValue{Kind: KindBool, Bool: false}, changes["has_children"])
	assert.Equal(s.T(), FieldValue{Kind: KindEnum, Str: "female"}, changes["gender"])
}

func (s *FieldSchemaSuite) TestParseChanges_RejectsUnknownField() {
	_, err := ParseChanges(rawChanges(s.T(), `{"shoe_size": 43}`))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *FieldSchemaSuite) TestParseChanges_RejectsWrongShape() {
	_, err := ParseChanges(rawChanges(s.T(), `{"age": "thirty"}`))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *FieldSchemaSuite) TestParseChanges_RejectsEnumOutsideSet() {
	_, err := ParseChanges(rawChanges(s.T(), `{"status": "complicated"}`))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *FieldSchemaSuite) TestParseChanges_RejectsEmpty() {
	_, err := ParseChanges(map[string]json.RawMessage{})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *FieldSchemaSuite) TestSensitiveDetection() {
	sensitive, err := ParseChanges(rawChanges(s.T(), `{"about_me": "hi", "height": 172}`))
	require.NoError(s.T(), err)
	assert.True(s.T(), IsSensitiveChange(sensitive))

	benign, err := ParseChanges(rawChanges(s.T(), `{"about_me": "hi", "city": "Bnei Brak"}`))
	require.NoError(s.T(), err)
	assert.False(s.T(), IsSensitiveChange(benign))
}

func (s *FieldSchemaSuite) TestApplyChanges_TouchesOnlyChangedFields() {
	u := User{Age: 30, HeightCM: 180, AboutMe: "old text", City: "Jerusalem"}
	changes, err := ParseChanges(rawChanges(s.T(), `{"age": 31}`))
	require.NoError(s.T(), err)

	u.ApplyChanges(changes)

	assert.Equal(s.T(), 31, u.Age)
	assert.Equal(s.T(), 180, u.HeightCM)
	assert.Equal(s.T(), "old text", u.AboutMe)
	assert.Equal(s.T(), "Jerusalem", u.City)
}

func (s *FieldSchemaSuite) TestFieldValueJSONRoundTrip() {
	changes, err := ParseChanges(rawChanges(s.T(), `{"age": 31, "has_children": true, "city": "Haifa"}`))
	require.NoError(s.T(), err)

	encoded, err := json.Marshal(changes)
	require.NoError(s.T(), err)

	reparsed, err := ParseChanges(rawChanges(s.T(), string(encoded)))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), changes, reparsed)
}

package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillListAcceptsArray(t *testing.T) {
	var s SkillList
	require.NoError(t, json.Unmarshal([]byte(`["go", " mongodb ", ""]`), &s))
	assert.Equal(t, SkillList{"go", "mongodb"}, s)
}

func TestSkillListAcceptsDelimitedString(t *testing.T) {
	var s SkillList
	require.NoError(t, json.Unmarshal([]byte(`"go, mongodb,  , docker"`), &s))
	assert.Equal(t, SkillList{"go", "mongodb", "docker"}, s)
}

func TestSkillListRejectsOtherShapes(t *testing.T) {
	var s SkillList
	assert.Error(t, json.Unmarshal([]byte(`{"skill": "go"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestFlexFloatAcceptsNumber(t *testing.T) {
	var f FlexFloat
	require.NoError(t, json.Unmarshal([]byte(`45.5`), &f))
	assert.Equal(t, FlexFloat(45.5), f)
}

func TestFlexFloatAcceptsNumericString(t *testing.T) {
	var f FlexFloat
	require.NoError(t, json.Unmarshal([]byte(`" 45.5 "`), &f))
	assert.Equal(t, FlexFloat(45.5), f)
}

func TestFlexFloatRejectsNonNumeric(t *testing.T) {
	var f FlexFloat
	assert.Error(t, json.Unmarshal([]byte(`"cheap"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))
}

package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *Definition {
	return &Definition{
		Objects: []Object{
			{
				ID:   "Default",
				Name: "Default",
				Fields: []Field{
					{Key: "scheduleType", StringValue: "cron"},
					{Key: "schedule", RefValue: "DefaultSchedule"},
				},
			},
			{
				ID:   "DefaultSchedule",
				Name: "Every run",
				Fields: []Field{
					{Key: "type", StringValue: "Schedule"},
					{Key: "period", StringValue: "#{mySchedulePeriod}"},
					{Key: "startDateTime", StringValue: "#{myStartDateTime}"},
				},
			},
		},
		Parameters: []Parameter{
			{ID: "myStartDateTime", Attributes: []Field{{Key: "type", StringValue: "String"}}},
			{ID: "mySchedulePeriod", Attributes: []Field{{Key: "type", StringValue: "String"}}},
		},
	}
}

func TestDefinitionEqual(t *testing.T) {
	a := sampleDefinition()
	b := sampleDefinition()
	assert.True(t, a.Equal(b))

	// Object and field order must not matter.
	b.Objects[0], b.Objects[1] = b.Objects[1], b.Objects[0]
	b.Objects[1].Fields[0], b.Objects[1].Fields[1] = b.Objects[1].Fields[1], b.Objects[1].Fields[0]
	assert.True(t, a.Equal(b))

	// A changed field value must.
	c := sampleDefinition()
	c.Objects[1].Fields[1].StringValue = "1 days"
	assert.False(t, a.Equal(c))

	// A missing object must.
	d := sampleDefinition()
	d.Objects = d.Objects[:1]
	assert.False(t, a.Equal(d))
}

func TestDefinitionEqual_Nil(t *testing.T) {
	var a *Definition
	assert.True(t, a.Equal(nil))
	assert.False(t, sampleDefinition().Equal(nil))
	assert.False(t, a.Equal(sampleDefinition()))
}

func TestDefinitionEqual_RepeatedKeys(t *testing.T) {
	a := &Definition{Objects: []Object{{ID: "x", Fields: []Field{
		{Key: "dependsOn", RefValue: "a"},
		{Key: "dependsOn", RefValue: "b"},
	}}}}
	b := &Definition{Objects: []Object{{ID: "x", Fields: []Field{
		{Key: "dependsOn", RefValue: "b"},
		{Key: "dependsOn", RefValue: "a"},
	}}}}
	c := &Definition{Objects: []Object{{ID: "x", Fields: []Field{
		{Key: "dependsOn", RefValue: "a"},
		{Key: "dependsOn", RefValue: "a"},
	}}}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestClone_Independent(t *testing.T) {
	orig := sampleDefinition()
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	clone.Objects[0].Fields[0].StringValue = "timeseries"
	clone.Parameters[0].Attributes[0].StringValue = "Integer"

	assert.Equal(t, "cron", orig.Objects[0].Fields[0].StringValue)
	assert.Equal(t, "String", orig.Parameters[0].Attributes[0].StringValue)
	assert.False(t, orig.Equal(clone))
}

func TestLoadTemplate(t *testing.T) {
	path := writeFile(t, "template.json", `{
		"objects": [
			{
				"id": "Default",
				"name": "Default",
				"scheduleType": "cron",
				"schedule": {"ref": "DefaultSchedule"},
				"maximumRetries": 3,
				"dependsOn": [{"ref": "a"}, {"ref": "b"}]
			}
		],
		"parameters": [
			{"id": "myStartDateTime", "type": "String"}
		]
	}`)

	def, err := LoadTemplate(path)
	require.NoError(t, err)
	require.Len(t, def.Objects, 1)

	obj := def.Objects[0]
	assert.Equal(t, "Default", obj.ID)
	assert.Equal(t, "Default", obj.Name)
	assert.Contains(t, obj.Fields, Field{Key: "scheduleType", StringValue: "cron"})
	assert.Contains(t, obj.Fields, Field{Key: "schedule", RefValue: "DefaultSchedule"})
	assert.Contains(t, obj.Fields, Field{Key: "maximumRetries", StringValue: "3"})
	assert.Contains(t, obj.Fields, Field{Key: "dependsOn", RefValue: "a"})
	assert.Contains(t, obj.Fields, Field{Key: "dependsOn", RefValue: "b"})

	require.Len(t, def.Parameters, 1)
	assert.Equal(t, "myStartDateTime", def.Parameters[0].ID)
}

func TestLoadTemplate_Errors(t *testing.T) {
	_, err := LoadTemplate("does/not/exist.json")
	assert.Error(t, err)

	bad := writeFile(t, "bad.json", `{"objects": [{"name": "no id"}]}`)
	_, err = LoadTemplate(bad)
	assert.ErrorContains(t, err, "missing id")

	badRef := writeFile(t, "badref.json", `{"objects": [{"id": "x", "schedule": {"not-ref": 1}}]}`)
	_, err = LoadTemplate(badRef)
	assert.ErrorContains(t, err, "ref")
}

func TestLoadValues(t *testing.T) {
	path := writeFile(t, "values.json", `{
		"metadata": {"name": "reports", "description": "Nightly reports"},
		"values": {
			"myStartDateTime": "2026-01-01T00:00:00",
			"mySchedulePeriod": "1 days"
		}
	}`)

	vf, err := LoadValues(path)
	require.NoError(t, err)
	assert.Equal(t, "reports", vf.Metadata.Name)
	assert.Equal(t, "Nightly reports", vf.Metadata.Description)
	assert.Equal(t, "1 days", vf.Values["mySchedulePeriod"])
}

func TestLoadValues_NoMetadata(t *testing.T) {
	path := writeFile(t, "values.json", `{"values": {"k": "v"}}`)

	vf, err := LoadValues(path)
	require.NoError(t, err)
	assert.Empty(t, vf.Metadata.Name)
	assert.Equal(t, "v", vf.Values["k"])
}

func TestTranslateRoundTrip(t *testing.T) {
	def := sampleDefinition()

	objects := APIObjects(def)
	params := APIParameters(def)
	require.Len(t, objects, 2)
	assert.Equal(t, "Default", objects[0].ID)
	assert.Equal(t, "DefaultSchedule", objects[1].ID)

	back := FromAPI(objects, params)
	assert.True(t, def.Equal(back))
}

func TestAPIValues_Sorted(t *testing.T) {
	values := map[string]string{
		"myS3InputDir":     "s3://bucket/inputs",
		"myStartDateTime":  "2026-01-01T00:00:00",
		"mySchedulePeriod": "1 days",
	}

	got := APIValues(values)
	require.Len(t, got, 3)
	assert.Equal(t, "myS3InputDir", got[0].ID)
	assert.Equal(t, "mySchedulePeriod", got[1].ID)
	assert.Equal(t, "myStartDateTime", got[2].ID)
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

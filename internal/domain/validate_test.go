package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDescription = "Visible sheen near pier"

func validInput() map[string]any {
	return map[string]any{
		"latitude":      34.05,
		"longitude":     -118.24,
		"pollutionType": "oil",
		"severity":      "high",
		"description":   testDescription,
		"dateObserved":  "2024-05-01",
	}
}

func requireViolations(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidateCreate_Valid(t *testing.T) {
	in, err := ValidateCreate(validInput())
	require.NoError(t, err)

	assert.Equal(t, 34.05, in.Latitude)
	assert.Equal(t, -118.24, in.Longitude)
	assert.Equal(t, PollutionOil, in.PollutionType)
	assert.Equal(t, SeverityHigh, in.Severity)
	assert.Equal(t, testDescription, in.Description)
	assert.Equal(t, "2024-05-01", in.DateObserved)
	assert.Nil(t, in.TimeObserved)
	assert.Nil(t, in.Name)
	assert.Nil(t, in.Email)
}

func TestValidateCreate_OptionalFields(t *testing.T) {
	input := validInput()
	input["timeObserved"] = "14:30"
	input["name"] = "Ana"
	input["email"] = "ana@example.org"

	in, err := ValidateCreate(input)
	require.NoError(t, err)
	require.NotNil(t, in.TimeObserved)
	assert.Equal(t, "14:30", *in.TimeObserved)
	assert.Equal(t, "Ana", *in.Name)
	assert.Equal(t, "ana@example.org", *in.Email)
}

func TestValidateCreate_FieldsRoundTrip(t *testing.T) {
	input := validInput()
	input["email"] = ""
	in, err := ValidateCreate(input)
	require.NoError(t, err)

	again, err := ValidateCreate(in.Fields())
	require.NoError(t, err)
	assert.Equal(t, in, again)
}

func TestValidateCreate_StripsServerOwnedKeys(t *testing.T) {
	input := validInput()
	input["id"] = 99
	input["createdAt"] = "2020-01-01T00:00:00Z"
	input["photo"] = "beach.jpg"

	_, err := ValidateCreate(input)
	require.NoError(t, err)
}

func TestValidateCreate_SingleViolation(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		message string
	}{
		{"latitude too high", FieldLatitude, 90.0001, "Latitude must be between -90 and 90"},
		{"latitude too low", FieldLatitude, -90.0001, "Latitude must be between -90 and 90"},
		{"latitude as string", FieldLatitude, "34.05", "Expected number, received string"},
		{"longitude too high", FieldLongitude, 180.5, "Longitude must be between -180 and 180"},
		{"longitude too low", FieldLongitude, -181.0, "Longitude must be between -180 and 180"},
		{"unknown pollution type", FieldPollutionType, "noise", "Invalid enum value. Expected 'plastic' | 'oil' | 'sewage' | 'abandoned' | 'other', received 'noise'"},
		{"unknown severity", FieldSeverity, "extreme", "Invalid enum value. Expected 'low' | 'moderate' | 'high' | 'critical', received 'extreme'"},
		{"short description", FieldDescription, "short", "Description must be at least 10 characters"},
		{"long description", FieldDescription, strings.Repeat("a", 1001), "Description must be less than 1000 characters"},
		{"date with slashes", FieldDateObserved, "2024/05/01", "Invalid date format"},
		{"date without padding", FieldDateObserved, "2024-5-1", "Invalid date format"},
		{"bad email", FieldEmail, "not-an-email", "Invalid email address"},
		{"numeric name", FieldName, 42.0, "Expected string, received number"},
		{"boolean time", FieldTimeObserved, true, "Expected string, received boolean"},
		{"null description", FieldDescription, nil, "Expected string, received null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			input[tt.field] = tt.value

			_, err := ValidateCreate(input)
			verr := requireViolations(t, err)
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, []string{tt.field}, verr.Violations[0].Path)
			assert.Equal(t, tt.message, verr.Violations[0].Message)
		})
	}
}

func TestValidateCreate_MissingRequired(t *testing.T) {
	tests := []struct {
		field   string
		message string
	}{
		{FieldLatitude, "Required"},
		{FieldLongitude, "Required"},
		{FieldPollutionType, "Please select a pollution type"},
		{FieldSeverity, "Please select a severity level"},
		{FieldDescription, "Required"},
		{FieldDateObserved, "Required"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			input := validInput()
			delete(input, tt.field)

			_, err := ValidateCreate(input)
			verr := requireViolations(t, err)
			assert.Equal(t, []string{tt.field}, verr.Fields())
			assert.Equal(t, tt.message, verr.Violations[0].Message)
		})
	}
}

func TestValidateCreate_ReportsEveryViolation(t *testing.T) {
	_, err := ValidateCreate(map[string]any{
		"latitude":    120.0,
		"description": "short",
		"email":       "nope",
	})
	verr := requireViolations(t, err)
	assert.Equal(t, []string{
		FieldLatitude, FieldLongitude, FieldPollutionType, FieldSeverity,
		FieldDescription, FieldDateObserved, FieldEmail,
	}, verr.Fields())
	assert.Contains(t, verr.Error(), "description: Description must be at least 10 characters")
}

func TestValidateCreate_Boundaries(t *testing.T) {
	for _, lat := range []float64{90, -90, 0} {
		input := validInput()
		input[FieldLatitude] = lat
		_, err := ValidateCreate(input)
		assert.NoError(t, err, "latitude %v", lat)
	}
	for _, lon := range []float64{180, -180} {
		input := validInput()
		input[FieldLongitude] = lon
		_, err := ValidateCreate(input)
		assert.NoError(t, err, "longitude %v", lon)
	}

	t.Run("description length bounds", func(t *testing.T) {
		input := validInput()
		input[FieldDescription] = strings.Repeat("x", MinDescriptionLength)
		_, err := ValidateCreate(input)
		require.NoError(t, err)

		input[FieldDescription] = strings.Repeat("x", MaxDescriptionLength)
		_, err = ValidateCreate(input)
		require.NoError(t, err)
	})

	t.Run("description counts characters not bytes", func(t *testing.T) {
		input := validInput()
		input[FieldDescription] = strings.Repeat("é", MaxDescriptionLength)
		_, err := ValidateCreate(input)
		require.NoError(t, err)
	})
}

func TestValidateCreate_EmailEdgeCases(t *testing.T) {
	t.Run("empty string means no email", func(t *testing.T) {
		input := validInput()
		input[FieldEmail] = ""
		in, err := ValidateCreate(input)
		require.NoError(t, err)
		require.NotNil(t, in.Email)
		assert.Empty(t, *in.Email)
	})

	t.Run("null name and time are stored as absent", func(t *testing.T) {
		input := validInput()
		input[FieldName] = nil
		input[FieldTimeObserved] = nil
		in, err := ValidateCreate(input)
		require.NoError(t, err)
		assert.Nil(t, in.Name)
		assert.Nil(t, in.TimeObserved)
	})

	t.Run("null email rejected", func(t *testing.T) {
		input := validInput()
		input[FieldEmail] = nil
		_, err := ValidateCreate(input)
		verr := requireViolations(t, err)
		assert.Equal(t, []Violation{{Path: []string{FieldEmail}, Message: "Expected string, received null"}}, verr.Violations)
	})
}

func TestValidateCreate_DateIsPatternOnly(t *testing.T) {
	for _, date := range []string{"2024-02-31", "2024-13-45", "9999-99-99", "1900-01-01"} {
		input := validInput()
		input[FieldDateObserved] = date
		_, err := ValidateCreate(input)
		assert.NoError(t, err, date)
	}
}

func TestValidateCreate_DecodedJSON(t *testing.T) {
	body := `{"latitude":34.05,"longitude":-118.24,"pollutionType":"oil","severity":"high","description":"Visible sheen near pier","dateObserved":"2024-05-01","timeObserved":null}`
	var input map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &input))

	in, err := ValidateCreate(input)
	require.NoError(t, err)
	assert.Equal(t, 34.05, in.Latitude)
	assert.Nil(t, in.TimeObserved)
}

func TestValidatePartial(t *testing.T) {
	t.Run("empty patch", func(t *testing.T) {
		patch, err := ValidatePartial(map[string]any{})
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("only supplied fields set", func(t *testing.T) {
		patch, err := ValidatePartial(map[string]any{"severity": "high"})
		require.NoError(t, err)
		require.NotNil(t, patch.Severity)
		assert.Equal(t, SeverityHigh, *patch.Severity)
		assert.Nil(t, patch.Description)
		assert.Nil(t, patch.Latitude)
		assert.Equal(t, []string{FieldSeverity}, patch.Fields())
	})

	t.Run("supplied fields use full rules", func(t *testing.T) {
		_, err := ValidatePartial(map[string]any{"description": "tiny", "latitude": 91.0})
		verr := requireViolations(t, err)
		assert.Equal(t, []string{FieldLatitude, FieldDescription}, verr.Fields())
	})

	t.Run("null required field rejected", func(t *testing.T) {
		_, err := ValidatePartial(map[string]any{"latitude": nil})
		verr := requireViolations(t, err)
		assert.Equal(t, "Expected number, received null", verr.Violations[0].Message)
	})

	t.Run("null clears nullable fields", func(t *testing.T) {
		patch, err := ValidatePartial(map[string]any{"name": nil, "timeObserved": nil})
		require.NoError(t, err)
		assert.True(t, patch.ClearName)
		assert.True(t, patch.ClearTimeObserved)
		assert.Nil(t, patch.Name)
		assert.False(t, patch.IsEmpty())
		assert.Equal(t, []string{FieldTimeObserved, FieldName}, patch.Fields())
	})

	t.Run("null email rejected", func(t *testing.T) {
		_, err := ValidatePartial(map[string]any{"email": nil})
		verr := requireViolations(t, err)
		assert.Equal(t, "Expected string, received null", verr.Violations[0].Message)
	})

	t.Run("server owned keys ignored", func(t *testing.T) {
		patch, err := ValidatePartial(map[string]any{"id": 7.0, "createdAt": "x"})
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(90, -180))

	err := ValidateCoordinates(91, 181)
	verr := requireViolations(t, err)
	assert.Equal(t, []string{FieldLatitude, FieldLongitude}, verr.Fields())
}

func TestNewBodyError(t *testing.T) {
	err := NewBodyError("Malformed JSON body")
	require.Len(t, err.Violations, 1)
	assert.Empty(t, err.Violations[0].Field())
	assert.Equal(t, []string{}, err.Violations[0].Path)
	assert.Equal(t, "invalid report data: Malformed JSON body", err.Error())
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_ValidFixturePasses(t *testing.T) {
	path := writeFixture(t, `[
		{"latitude": 33.985, "longitude": -118.4695, "pollutionType": "plastic", "severity": "low",
		 "description": "Bags tangled in kelp", "dateObserved": "2024-05-01"},
		{"latitude": -18.3, "longitude": 147.7, "pollutionType": "abandoned", "severity": "critical",
		 "description": "Ghost net draped over coral", "dateObserved": "2024-04-28",
		 "timeObserved": "07:15", "name": "Kai", "email": "kai@example.org"}
	]`)

	var out bytes.Buffer
	code := run(path, "", &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Records: 2 submitted, 2 stored")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestRun_InvalidFixtureFails(t *testing.T) {
	path := writeFixture(t, `[
		{"latitude": 91, "longitude": 0, "pollutionType": "oil", "severity": "high",
		 "description": "Sheen", "dateObserved": "May 1"},
		{"latitude": 10.1234567, "longitude": 0, "pollutionType": "oil", "severity": "high",
		 "description": "Sheen near the buoy", "dateObserved": "2024-05-01"}
	]`)

	var out bytes.Buffer
	code := run(path, "", &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "--- Submission rules ---")
	assert.Contains(t, out.String(), "--- Coordinate precision (6 dp) ---")
	assert.Contains(t, out.String(), "Records: 2 submitted, 1 stored")
}

func TestRun_MissingFixture(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "absent.json"), "", &bytes.Buffer{}))
}

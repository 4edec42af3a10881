package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olehluchkiv/sbmlannot/internal/sbml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// reorderArgs tests
// ---------------------------------------------------------------------------

func TestReorderArgs_NoArgs(t *testing.T) {
	flags, positional := reorderArgs(nil)
	assert.Nil(t, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_PositionalOnly(t *testing.T) {
	flags, positional := reorderArgs([]string{"model.xml"})
	assert.Nil(t, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

func TestReorderArgs_PositionalBeforeFlags(t *testing.T) {
	// The whole point of reorderArgs: allow positional args before flags.
	flags, positional := reorderArgs([]string{"model.xml", "-kind", "species", "-id", "glc"})
	assert.Equal(t, []string{"-kind", "species", "-id", "glc"}, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

func TestReorderArgs_StdinIsPositional(t *testing.T) {
	flags, positional := reorderArgs([]string{"-kind", "model", "-"})
	assert.Equal(t, []string{"-kind", "model"}, flags)
	assert.Equal(t, []string{"-"}, positional)
}

func TestReorderArgs_ValueFlagWithEquals(t *testing.T) {
	flags, positional := reorderArgs([]string{"-set=<a/>", "model.xml"})
	assert.Equal(t, []string{"-set=<a/>"}, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

func TestReorderArgs_DoubleHyphenValueFlag(t *testing.T) {
	flags, positional := reorderArgs([]string{"--output", "out.xml", "model.xml"})
	assert.Equal(t, []string{"--output", "out.xml"}, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

func TestReorderArgs_BooleanFlagDoesNotConsumeNextArg(t *testing.T) {
	flags, positional := reorderArgs([]string{"-unset", "model.xml"})
	assert.Equal(t, []string{"-unset"}, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

func TestReorderArgs_ValueFlagAtEnd(t *testing.T) {
	// A value flag with no following arg is kept; flag parsing reports it.
	flags, positional := reorderArgs([]string{"model.xml", "-id"})
	assert.Equal(t, []string{"-id"}, flags)
	assert.Equal(t, []string{"model.xml"}, positional)
}

// ---------------------------------------------------------------------------
// parseLogLevel tests
// ---------------------------------------------------------------------------

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

// ---------------------------------------------------------------------------
// run tests
// ---------------------------------------------------------------------------

const cliDoc = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level3/version2/core" level="3" version="2">
  <model id="m">
    <listOfUnitDefinitions>
      <unitDefinition id="ml">
        <listOfUnits>
          <unit kind="litre" exponent="1" scale="-3" multiplier="1"/>
        </listOfUnits>
      </unitDefinition>
    </listOfUnitDefinitions>
    <listOfSpecies>
      <species id="glc" compartment="c" constant="false">
        <annotation><chebi id="CHEBI:17234"/></annotation>
      </species>
    </listOfSpecies>
  </model>
</sbml>
`

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.xml")
	require.NoError(t, os.WriteFile(path, []byte(cliDoc), 0o644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"-log-level", "error"}, args...)
	code = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_GetSpecies(t *testing.T) {
	path := writeDoc(t)
	code, stdout, _ := runCLI(t, "", path, "-kind", "species", "-id", "glc")
	assert.Equal(t, 0, code)
	assert.Equal(t, `<annotation><chebi id="CHEBI:17234"/></annotation>`+"\n", stdout)
}

func TestRun_GetUnsetPrintsEmptyLine(t *testing.T) {
	path := writeDoc(t)
	code, stdout, _ := runCLI(t, "", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "\n", stdout)
}

func TestRun_SetUnitToOutputFile(t *testing.T) {
	path := writeDoc(t)
	outPath := filepath.Join(t.TempDir(), "out.xml")

	code, stdout, stderr := runCLI(t, "", "-kind", "unit", "-id", "ml", "-unit", "0",
		"-set", "<annotation><note>volume</note></annotation>", "-output", outPath, path)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc, err := sbml.ReadString(string(data))
	require.NoError(t, err)
	assert.Equal(t, "<annotation><note>volume</note></annotation>",
		doc.Model.FindUnitDefinition("ml").Units[0].AnnotationString())
	assert.Equal(t, `<annotation><chebi id="CHEBI:17234"/></annotation>`,
		doc.Model.FindSpecies("glc").AnnotationString())
}

func TestRun_SetFromFileViaStdin(t *testing.T) {
	annPath := filepath.Join(t.TempDir(), "ann.xml")
	require.NoError(t, os.WriteFile(annPath, []byte("<annotation><from-file/></annotation>"), 0o644))

	code, stdout, stderr := runCLI(t, cliDoc, "-", "-kind", "unitdefinition", "-id", "ml", "-set-file", annPath)
	require.Equal(t, 0, code, stderr)

	doc, err := sbml.ReadString(stdout)
	require.NoError(t, err)
	assert.Equal(t, "<annotation><from-file/></annotation>", doc.Model.FindUnitDefinition("ml").AnnotationString())
}

func TestRun_Unset(t *testing.T) {
	path := writeDoc(t)
	code, stdout, stderr := runCLI(t, "", path, "-kind", "species", "-id", "glc", "-unset")
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "chebi")
}

func TestRun_SetInPlaceKeepsReactionNetwork(t *testing.T) {
	const in = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level3/version2/core" level="3" version="2">
  <model id="m">
    <listOfParameters>
      <parameter id="k1" value="0.1" constant="true"/>
    </listOfParameters>
    <listOfReactions>
      <reaction id="r1" reversible="false"/>
    </listOfReactions>
  </model>
</sbml>
`
	path := filepath.Join(t.TempDir(), "model.xml")
	require.NoError(t, os.WriteFile(path, []byte(in), 0o644))

	code, _, stderr := runCLI(t, "", path, "-set", "<a/>", "-output", path)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `<parameter id="k1" value="0.1" constant="true"/>`)
	assert.Contains(t, out, `<reaction id="r1" reversible="false"/>`)
	assert.Contains(t, out, "<annotation><a/></annotation>")
	assert.NotContains(t, out, "listOfSpecies")
}

func TestRun_MalformedAnnotationFailsWrite(t *testing.T) {
	path := writeDoc(t)
	outPath := filepath.Join(t.TempDir(), "out.xml")

	code, _, stderr := runCLI(t, "", path, "-set", "<open>", "-output", outPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "malformed annotation")
	assert.NoFileExists(t, outPath)
}

func TestRun_Errors(t *testing.T) {
	path := writeDoc(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"no input", nil, 2, "Usage: sbmlannot"},
		{"bad kind", []string{path, "-kind", "reaction"}, 2, "unknown element kind"},
		{"missing id", []string{path, "-kind", "species"}, 2, "-id is required"},
		{"two writes", []string{path, "-set", "<a/>", "-unset"}, 2, "Only one of"},
		{"unknown species", []string{path, "-kind", "species", "-id", "atp"}, 1, "element not found"},
		{"unit index", []string{path, "-kind", "unit", "-id", "ml", "-unit", "3"}, 1, "unit index out of range"},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.xml")}, 1, "Error loading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

package bruker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmrcore/pkg/domain"
)

const acquFixture = `##TITLE= Parameter file, TopSpin 3.2
##JCAMPDX= 5.0
$$ 2023-06-12 10:11:12.000 +0200  user@spectrometer
##$PULPROG= <zg30>
##$TD= 65536
##$SWH= 10000.000
##$DIGMOD= yes
##$FnMODE= no
##$NUC1= <1H>
##$SFO1= 400.132471
##END=
`

func TestParseParametersScalars(t *testing.T) {
	params, err := ParseParameters(strings.NewReader(acquFixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got, ok := params.Get("PULPROG").String(); !ok || got != "zg30" {
		t.Fatalf("PULPROG = %v, want string zg30", params.Get("PULPROG"))
	}
	if got, ok := params.Get("TD").Int(); !ok || got != 65536 {
		t.Fatalf("TD = %v, want int 65536", params.Get("TD"))
	}
	if got, ok := params.Get("SWH").Float(); !ok || got != 10000.0 {
		t.Fatalf("SWH = %v, want float 10000", params.Get("SWH"))
	}
	if got, ok := params.Get("DIGMOD").Bool(); !ok || !got {
		t.Fatalf("DIGMOD = %v, want bool true", params.Get("DIGMOD"))
	}
	if got, ok := params.Get("FnMODE").Bool(); !ok || got {
		t.Fatalf("FnMODE = %v, want bool false", params.Get("FnMODE"))
	}
	if got, ok := params.Get("NUC1").String(); !ok || got != "1H" {
		t.Fatalf("NUC1 = %v, want string 1H", params.Get("NUC1"))
	}
	if got, ok := params.Get("SFO1").Float(); !ok || got != 400.132471 {
		t.Fatalf("SFO1 = %v, want float 400.132471", params.Get("SFO1"))
	}

	// Comment headers and timestamps never become parameters.
	if _, ok := params.Lookup("TITLE"); ok {
		t.Fatalf("TITLE captured, want skipped")
	}
	if params.Len() != 7 {
		t.Fatalf("Len = %d, want 7 (%v)", params.Len(), params.Names())
	}
}

func TestParseParametersArrayNameSuffix(t *testing.T) {
	input := `##$O1P(0..7)= 0 0 0 0 0 0 0 0
##$D(0..3)= 0.001 1.0
2.5 0.000025
##$TD= 1024
`
	params, err := ParseParameters(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	o1p, ok := params.Get("O1P").List()
	if !ok {
		t.Fatalf("O1P = %v, want list", params.Get("O1P"))
	}
	if len(o1p) != 8 {
		t.Fatalf("len(O1P) = %d, want 8", len(o1p))
	}
	for i, v := range o1p {
		if got, ok := v.Int(); !ok || got != 0 {
			t.Fatalf("O1P[%d] = %v, want int 0", i, v)
		}
	}

	d, ok := params.Get("D").List()
	if !ok || len(d) != 4 {
		t.Fatalf("D = %v, want 4-element list", params.Get("D"))
	}
	if got, ok := d[0].Float(); !ok || got != 0.001 {
		t.Fatalf("D[0] = %v, want 0.001", d[0])
	}
	if got, ok := d[3].Float(); !ok || got != 0.000025 {
		t.Fatalf("D[3] = %v, want 0.000025", d[3])
	}

	// The directive ending the array must still be parsed itself.
	if got, ok := params.Get("TD").Int(); !ok || got != 1024 {
		t.Fatalf("TD = %v, want int 1024", params.Get("TD"))
	}
}

func TestParseParametersArrayValueRange(t *testing.T) {
	input := `##$P= (0..3)
10.5 21 10.5 14
##$NS= 16
`
	params, err := ParseParameters(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	p, ok := params.Get("P").List()
	if !ok || len(p) != 4 {
		t.Fatalf("P = %v, want 4-element list", params.Get("P"))
	}
	if got, ok := p[0].Float(); !ok || got != 10.5 {
		t.Fatalf("P[0] = %v, want 10.5", p[0])
	}
	if got, ok := p[1].Int(); !ok || got != 21 {
		t.Fatalf("P[1] = %v, want int 21", p[1])
	}
	if got, ok := params.Get("NS").Int(); !ok || got != 16 {
		t.Fatalf("NS = %v, want int 16", params.Get("NS"))
	}
}

func TestParseParametersArrayStopsAtBlank(t *testing.T) {
	input := "##$GPZ(0..2)= 50 30\n\n##$NS= 8\n"
	params, err := ParseParameters(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	gpz, ok := params.Get("GPZ").List()
	if !ok || len(gpz) != 2 {
		t.Fatalf("GPZ = %v, want 2-element list", params.Get("GPZ"))
	}
	if got, ok := params.Get("NS").Int(); !ok || got != 8 {
		t.Fatalf("NS = %v, want int 8", params.Get("NS"))
	}
}

func TestParseParametersLastWriteWins(t *testing.T) {
	input := "##$NS= 4\n##$NS= 32\n"
	params, err := ParseParameters(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, ok := params.Get("NS").Int(); !ok || got != 32 {
		t.Fatalf("NS = %v, want int 32", params.Get("NS"))
	}
}

func TestConvertTokenGrammar(t *testing.T) {
	cases := []struct {
		token string
		want  domain.Value
	}{
		{"<zg30>", domain.StringValue("zg30")},
		{"<user text>", domain.StringValue("user text")},
		{"<>", domain.StringValue("")},
		{"yes", domain.BoolValue(true)},
		{"Yes", domain.BoolValue(true)},
		{"NO", domain.BoolValue(false)},
		{"42", domain.IntValue(42)},
		{"-7", domain.IntValue(-7)},
		{"3.14", domain.FloatValue(3.14)},
		{"1e6", domain.FloatValue(1e6)},
		{"1E-3", domain.FloatValue(0.001)},
		{"abc", domain.StringValue("abc")},
		{"1.2.3", domain.StringValue("1.2.3")},
		{"0x10", domain.StringValue("0x10")},
		{"", domain.StringValue("")},
	}
	for _, tc := range cases {
		if got := convertToken(tc.token); !got.Equal(tc.want) {
			t.Fatalf("convertToken(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestParseParametersToleratesInvalidBytes(t *testing.T) {
	input := "##$USERA1= <ok>\n##$COMMENT= caf\xff\xfe\n##$NS= 2\n"
	params, err := ParseParameters(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, ok := params.Get("USERA1").String(); !ok || got != "ok" {
		t.Fatalf("USERA1 = %v, want string ok", params.Get("USERA1"))
	}
	if got, ok := params.Get("NS").Int(); !ok || got != 2 {
		t.Fatalf("NS = %v, want int 2", params.Get("NS"))
	}
}

func TestParseParameterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acqus")
	if err := os.WriteFile(path, []byte(acquFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	params, err := ParseParameterFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if got, ok := params.Get("PULPROG").String(); !ok || got != "zg30" {
		t.Fatalf("PULPROG = %v, want string zg30", params.Get("PULPROG"))
	}
}

func TestParseParameterFileMissing(t *testing.T) {
	_, err := ParseParameterFile(filepath.Join(t.TempDir(), "acqu"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var pe domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want ParseError", err)
	}
	if pe.File != "acqu" {
		t.Fatalf("File = %q, want acqu", pe.File)
	}
}

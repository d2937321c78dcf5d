package commands

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/calvinmclean/pivend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoData = errors.New("no data")

type vendCall struct {
	address  string
	override bool
}

type fakeController struct {
	input []byte
	// gaps is how many reads report no data before input is consumed
	gaps int

	vends    []vendCall
	outcome  pivend.Outcome
	slots    []pivend.Slot
	status   []string
	err      error
	chiller  *bool
	target   *int32
	disabled bool
	temp     int32
	verbose  bool
	idles    int
}

func (f *fakeController) Vend(address string, override bool) pivend.Outcome {
	f.vends = append(f.vends, vendCall{address, override})
	return f.outcome
}

func (f *fakeController) MapMachine() []pivend.Slot {
	return f.slots
}

func (f *fakeController) Status(address string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if address != "" {
		return append(f.status, address), nil
	}
	return f.status, nil
}

func (f *fakeController) SetChiller(on bool) {
	f.chiller = &on
}

func (f *fakeController) SetTarget(milli int32) error {
	if f.err != nil {
		return f.err
	}
	f.target = &milli
	return nil
}

func (f *fakeController) DisableTarget() {
	f.disabled = true
}

func (f *fakeController) Temperature() (int32, error) {
	return f.temp, f.err
}

func (f *fakeController) Verbose() {
	f.verbose = true
}

func (f *fakeController) Idle() {
	f.idles++
}

func (f *fakeController) ReadByte() (byte, error) {
	if f.gaps > 0 {
		f.gaps--
		return 0, errNoData
	}
	if len(f.input) == 0 {
		return 0, io.EOF
	}
	b := f.input[0]
	f.input = f.input[1:]
	return b, nil
}

func dispatch(t *testing.T, c Controller, line string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Dispatch(c, &out, Parse(line)))
	return out.String()
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		fake     fakeController
		expected string
		check    func(*testing.T, *fakeController)
	}{
		{
			"Vend",
			"VEND A0",
			fakeController{outcome: pivend.OutcomeSuccess},
			"Success\n",
			func(t *testing.T, f *fakeController) {
				assert.Equal(t, []vendCall{{"A0", false}}, f.vends)
			},
		},
		{
			"VendLowerCase",
			"vend B3",
			fakeController{outcome: pivend.OutcomeNotHome},
			"Motor not home at start of cycle\n",
			func(t *testing.T, f *fakeController) {
				assert.Equal(t, []vendCall{{"B3", false}}, f.vends)
			},
		},
		{
			"VendPassesAddressThrough",
			"VEND Z9",
			fakeController{outcome: pivend.OutcomeInvalidAddress},
			"Invalid address\n",
			func(t *testing.T, f *fakeController) {
				assert.Equal(t, []vendCall{{"Z9", false}}, f.vends)
			},
		},
		{
			"VendMissingAddress",
			"VEND",
			fakeController{},
			"Error, no item address specified\n",
			func(t *testing.T, f *fakeController) {
				assert.Empty(t, f.vends)
			},
		},
		{
			"Home",
			"HOME E4",
			fakeController{outcome: pivend.OutcomeMotorStuckNotHome},
			"Motor jammed in not-home position\n",
			func(t *testing.T, f *fakeController) {
				assert.Equal(t, []vendCall{{"E4", true}}, f.vends)
			},
		},
		{
			"HomeMissingAddress",
			"HOME",
			fakeController{},
			"Error, no item address specified\n",
			nil,
		},
		{
			"Unknown",
			"DANCE",
			fakeController{},
			usage + "\n",
			nil,
		},
		{
			"Status",
			"STATUS",
			fakeController{status: []string{"chiller=off target=none"}},
			"chiller=off target=none\n",
			nil,
		},
		{
			"StatusAddress",
			"STATUS C2",
			fakeController{status: []string{"chiller=on target=4.0"}},
			"chiller=on target=4.0\nC2\n",
			nil,
		},
		{
			"StatusError",
			"STATUS G1",
			fakeController{err: errors.New("row has no sense lines to probe")},
			"Error: row has no sense lines to probe\n",
			nil,
		},
		{
			"MapMachine",
			"MAP_MACHINE",
			fakeController{slots: []pivend.Slot{
				{Address: "A0"},
				{Address: "A2", Present: true, Homed: true},
			}},
			"A0 - NOT present\nA2 - Present, Homed\n",
			nil,
		},
		{
			"SetTemp",
			"SET_TEMP 4.5",
			fakeController{},
			"target=4.5\n",
			func(t *testing.T, f *fakeController) {
				require.NotNil(t, f.target)
				assert.Equal(t, int32(4500), *f.target)
			},
		},
		{
			"SetTempOff",
			"SET_TEMP off",
			fakeController{},
			"target=none\n",
			func(t *testing.T, f *fakeController) {
				assert.True(t, f.disabled)
				assert.Nil(t, f.target)
			},
		},
		{
			"SetTempInvalid",
			"SET_TEMP cold",
			fakeController{},
			"Error: invalid temperature\n",
			func(t *testing.T, f *fakeController) {
				assert.Nil(t, f.target)
			},
		},
		{
			"SetTempMissing",
			"SET_TEMP",
			fakeController{},
			"Error, no temperature specified\n",
			nil,
		},
		{
			"SetTempNoThermometer",
			"SET_TEMP 3",
			fakeController{err: errors.New("no thermometer configured")},
			"Error: no thermometer configured\n",
			nil,
		},
		{
			"Temp",
			"TEMP",
			fakeController{temp: 5250},
			"temperature=5.2\n",
			nil,
		},
		{
			"ChillerOn",
			"CHILLER on",
			fakeController{},
			"chiller=on\n",
			func(t *testing.T, f *fakeController) {
				require.NotNil(t, f.chiller)
				assert.True(t, *f.chiller)
			},
		},
		{
			"ChillerOff",
			"CHILLER OFF",
			fakeController{},
			"chiller=off\n",
			func(t *testing.T, f *fakeController) {
				require.NotNil(t, f.chiller)
				assert.False(t, *f.chiller)
			},
		},
		{
			"ChillerInvalid",
			"CHILLER maybe",
			fakeController{},
			"Error: invalid argument\n",
			func(t *testing.T, f *fakeController) {
				assert.Nil(t, f.chiller)
			},
		},
		{
			"Verbose",
			"VERBOSE",
			fakeController{},
			"verbose\n",
			func(t *testing.T, f *fakeController) {
				assert.True(t, f.verbose)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.fake
			assert.Equal(t, tt.expected, dispatch(t, &f, tt.line))
			if tt.check != nil {
				tt.check(t, &f)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	out := dispatch(t, &fakeController{}, "HELP")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(commands)+1)
	assert.Equal(t, "Available Commands:", lines[0])
	assert.Equal(t, "VEND <item address>: Vend the item at an address like A0.", lines[1])
	assert.Contains(t, out, "STATUS [item address]: ")
	assert.Contains(t, out, "MAP_MACHINE: ")
}

func TestRun(t *testing.T) {
	f := &fakeController{
		input:   []byte("VEND A0\r\n\r\nTEMP\rBOGUS\n"),
		gaps:    3,
		outcome: pivend.OutcomeNoCan,
		temp:    -1000,
	}
	var out bytes.Buffer

	require.NoError(t, Run(f, &out))

	eot := string(rune(pivend.TerminationChar))
	assert.Equal(t, "Less than two cans present\n"+eot+"temperature=-1.0\n"+eot+usage+"\n"+eot, out.String())
	assert.Equal(t, 3, f.idles)
	assert.Len(t, f.vends, 1)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("port closed")
}

func TestRunWriteError(t *testing.T) {
	f := &fakeController{input: []byte("TEMP\nTEMP\n")}

	err := Run(f, failingWriter{})
	assert.ErrorContains(t, err, "port closed")
	assert.Equal(t, []byte("TEMP\n"), f.input, "stops after the first failed response")
}

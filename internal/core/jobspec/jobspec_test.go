package jobspec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() Input {
	return Input{
		Name:        "promo",
		SourcePaths: []string{"/mnt/media/promo.mov"},
		OutputDir:   "/mnt/out",
		Codec:       "prores_proxy",
		Container:   "mov",
		Delivery:    DeliveryEditorial,
	}
}

func TestCompile(t *testing.T) {
	spec, err := Compile(validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, spec.ID)
	assert.False(t, spec.CreatedAt.IsZero())
	assert.Equal(t, "promo", spec.Name)
	assert.Equal(t, defaultNamingTemplate, spec.NamingTemplate)
}

func TestCompileFreshID(t *testing.T) {
	a, err := Compile(validInput())
	require.NoError(t, err)
	b, err := Compile(validInput())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCompileDefaultsNameFromSource(t *testing.T) {
	in := validInput()
	in.Name = ""
	spec, err := Compile(in)
	require.NoError(t, err)
	assert.Equal(t, "promo.mov", spec.Name)
}

func TestCompileValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"empty sources", func(in *Input) { in.SourcePaths = nil }, "sources"},
		{"relative source", func(in *Input) { in.SourcePaths = []string{"clips/a.mov"} }, "sources"},
		{"missing output dir", func(in *Input) { in.OutputDir = "" }, "output_dir"},
		{"relative output dir", func(in *Input) { in.OutputDir = "out" }, "output_dir"},
		{"missing codec", func(in *Input) { in.Codec = "" }, "codec"},
		{"missing container", func(in *Input) { in.Container = "" }, "container"},
		{"bad delivery", func(in *Input) { in.Delivery = "broadcast" }, "delivery"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := Compile(in)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCompileCopiesSources(t *testing.T) {
	in := validInput()
	spec, err := Compile(in)
	require.NoError(t, err)
	in.SourcePaths[0] = "/mnt/media/other.mov"
	assert.Equal(t, "/mnt/media/promo.mov", spec.SourcePaths[0])
}

package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "label,p1,p2,p3\n3,0,128,255\n0, 1,2,3\n"
	samples, labels, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []int{3, 0}, labels)
	assert.Equal(t, [][]float64{{0, 128, 255}, {1, 2, 3}}, samples)
}

func TestReadCSV_NoHeader(t *testing.T) {
	samples, labels, err := ReadCSV(strings.NewReader("1,0.5\n2,0.25\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, labels)
	assert.Len(t, samples, 2)
}

func TestReadCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"header only":  "label,p1\n",
		"bad label":    "1,2\nx,3\n",
		"bad feature":  "1,2\n1,y\n",
		"ragged":       "1,2,3\n1,2\n",
		"no features":  "1\n",
		"negative lbl": "-1,2\n",
	}
	for name, in := range cases {
		_, _, err := ReadCSV(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("7,10,20\n"), 0o644))

	samples, labels, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, labels)
	assert.Equal(t, [][]float64{{10, 20}}, samples)

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestNormalizePixels(t *testing.T) {
	samples := [][]float64{{0, 255}, {51, 102}}
	NormalizePixels(samples, 255)
	assert.Equal(t, [][]float64{{0, 1}, {0.2, 0.4}}, samples)
}

func TestOneHot(t *testing.T) {
	out, err := OneHot([]int{2, 0, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}}, out)
	for _, row := range out {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		assert.Equal(t, 1.0, sum)
	}

	_, err = OneHot([]int{3}, 3)
	assert.Error(t, err)
	_, err = OneHot([]int{0}, 0)
	assert.Error(t, err)
}

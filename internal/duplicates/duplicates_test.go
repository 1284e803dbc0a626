package duplicates

import (
	"testing"

	"province-forge/internal/model"

	"github.com/stretchr/testify/assert"
)

func eightProvinces() *model.State {
	red, green, blue := model.Color{R: 255}, model.Color{G: 255}, model.Color{B: 255}
	state := model.NewState()
	state.SetProvinces([]model.Province{
		{Index: 1, Color: red, Visible: true},
		{Index: 2, Color: model.Color{R: 1, G: 2, B: 3}, Visible: true},
		{Index: 3, Color: model.Color{R: 4, G: 5, B: 6}, Visible: true},
		{Index: 4, Color: red, Visible: true},
		{Index: 5, Color: green, Visible: true},
		{Index: 6, Color: green, Visible: true},
		{Index: 7, Color: blue, Visible: true, RNW: true, Names: model.Names{Definition: "RNW"}},
		{Index: 8, Color: blue, Visible: true, RNW: true, Names: model.Names{Definition: "RNW"}},
	})
	return state
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		ignoreRNW bool
		want      [][]int
	}{
		{"rnw included", false, [][]int{{1, 4}, {5, 6}, {7, 8}}},
		{"rnw ignored", true, [][]int{{1, 4}, {5, 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := eightProvinces()
			rings := Detect(state, Options{IgnoreRNW: tt.ignoreRNW})
			assert.Equal(t, len(tt.want), rings)
			assert.Equal(t, tt.want, state.Rings())
			assert.Equal(t, model.NoDuplicate, state.Province(2).Next)
		})
	}
}

func TestDetect_ResetsStaleLinks(t *testing.T) {
	state := eightProvinces()
	Detect(state, Options{})
	assert.Equal(t, 3, state.Province(1).Next)

	state.Province(4).Visible = false
	assert.Equal(t, 2, Detect(state, Options{}))
	assert.Equal(t, model.NoDuplicate, state.Province(1).Next)
	assert.Equal(t, model.NoDuplicate, state.Province(4).Next)
}

func TestDetect_ThreeMemberRing(t *testing.T) {
	state := model.NewState()
	c := model.Color{R: 9, G: 9, B: 9}
	state.SetProvinces([]model.Province{
		{Index: 10, Color: c, Visible: true},
		{Index: 20, Color: c, Visible: true},
		{Index: 30, Color: c, Visible: true},
		{Index: 40, Color: model.Color{R: model.Unset, G: 9, B: 9}, Visible: true},
	})
	assert.Equal(t, 1, Detect(state, Options{}))
	assert.Equal(t, 1, state.Province(10).Next)
	assert.Equal(t, 2, state.Province(20).Next)
	assert.Equal(t, 0, state.Province(30).Next)
	assert.Equal(t, model.NoDuplicate, state.Province(40).Next)

	Clear(state)
	assert.Empty(t, state.Rings())
}

package motor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i59wn() Params {
	return Params{
		Name:                       "I59WN",
		ThrustSource:               "AeroTech_I59WN.eng",
		DryMass:                    0.215,
		DryInertia:                 [3]float64{0.125, 0.125, 0.002},
		GrainNumber:                1,
		GrainDensity:               1432,
		GrainOuterRadius:           0.019,
		GrainInitialInnerRadius:    0.010,
		GrainInitialHeight:         0.232,
		GrainSeparation:            0.005,
		GrainsCenterOfMassPosition: 0.116,
		CenterOfDryMassPosition:    0.116,
		BurnTime:                   8.15,
	}
}

func TestBuild(t *testing.T) {
	m, err := Build(i59wn())
	require.NoError(t, err)

	assert.Equal(t, "I59WN", m.Name())
	assert.Equal(t, 8.15, m.BurnTime())
	assert.Equal(t, NozzleToCombustionChamber, m.Params().Orientation)

	want := 1432 * math.Pi * (0.019*0.019 - 0.010*0.010) * 0.232
	assert.InDelta(t, want, m.PropellantMass(), 1e-12)
	assert.InDelta(t, 0.215+want, m.TotalMass(), 1e-12)
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   string
	}{
		{"inner equals outer", func(p *Params) { p.GrainInitialInnerRadius = p.GrainOuterRadius }, "must be less than outer radius"},
		{"inner above outer", func(p *Params) { p.GrainInitialInnerRadius = 0.02 }, "must be less than outer radius"},
		{"zero burn time", func(p *Params) { p.BurnTime = 0 }, "burn time"},
		{"negative burn time", func(p *Params) { p.BurnTime = -1 }, "burn time"},
		{"NaN burn time", func(p *Params) { p.BurnTime = math.NaN() }, "burn time"},
		{"no grains", func(p *Params) { p.GrainNumber = 0 }, "grain number"},
		{"negative density", func(p *Params) { p.GrainDensity = -1 }, "grain density"},
		{"negative height", func(p *Params) { p.GrainInitialHeight = -0.1 }, "grain initial height"},
		{"negative separation", func(p *Params) { p.GrainSeparation = -0.005 }, "grain separation"},
		{"negative inner radius", func(p *Params) { p.GrainInitialInnerRadius = -0.001 }, "grain initial inner radius"},
		{"negative inertia", func(p *Params) { p.DryInertia[2] = -0.002 }, "I33"},
		{"infinite position", func(p *Params) { p.NozzlePosition = math.Inf(1) }, "nozzle position"},
		{"bad orientation", func(p *Params) { p.Orientation = "sideways" }, "orientation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := i59wn()
			tt.mutate(&p)

			m, err := Build(p)
			assert.Nil(t, m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMotorGeometry), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "I59WN")
		})
	}
}

func TestMotorIsImmutable(t *testing.T) {
	p := i59wn()
	m, err := Build(p)
	require.NoError(t, err)

	p.BurnTime = 1
	p.DryInertia[0] = 99

	got := m.Params()
	got.GrainDensity = 0

	assert.Equal(t, 8.15, m.BurnTime())
	assert.Equal(t, 0.125, m.Params().DryInertia[0])
	assert.Equal(t, 1432.0, m.Params().GrainDensity)
}

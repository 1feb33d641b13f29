package virt

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedProbe(name string, found bool, err error, calls *int) Probe {
	return Probe{Name: name, Check: func(*Env) (bool, error) {
		if calls != nil {
			*calls++
		}
		return found, err
	}}
}

func TestDetectAnySingleProbe(t *testing.T) {
	const n = 6
	for hit := 0; hit < n; hit++ {
		t.Run(fmt.Sprintf("probe-%d", hit), func(t *testing.T) {
			probes := make([]Probe, 0, n)
			for i := 0; i < n; i++ {
				switch {
				case i == hit:
					probes = append(probes, fixedProbe(fmt.Sprintf("p%d", i), true, nil, nil))
				case i%2 == 0:
					probes = append(probes, fixedProbe(fmt.Sprintf("p%d", i), false, nil, nil))
				default:
					probes = append(probes, fixedProbe(fmt.Sprintf("p%d", i), false, errors.New("denied"), nil))
				}
			}
			assert.True(t, New(WithProbes(probes...)).Detect())
		})
	}
}

func TestDetectAllAbsentOrErrored(t *testing.T) {
	d := New(WithProbes(
		fixedProbe("a", false, nil, nil),
		fixedProbe("b", false, errors.New("command not found"), nil),
		// 出错时即使返回 true 也不算命中
		fixedProbe("c", true, errors.New("permission denied"), nil),
	))
	assert.False(t, d.Detect())
	assert.False(t, New(WithProbes()).Detect())
}

func TestDetectShortCircuits(t *testing.T) {
	var before, after int
	d := New(WithProbes(
		fixedProbe("before", false, nil, &before),
		fixedProbe("hit", true, nil, nil),
		fixedProbe("after", true, nil, &after),
	))

	require.True(t, d.Detect())
	assert.Equal(t, 1, before)
	assert.Equal(t, 0, after)
}

func TestEvaluate(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	d := New(WithProbes(
		fixedProbe("hit", true, nil, &calls),
		fixedProbe("miss", false, nil, &calls),
		fixedProbe("broken", false, boom, &calls),
	))

	obs := d.Evaluate()
	require.Len(t, obs, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, Observation{Probe: "hit", Signal: Present}, obs[0])
	assert.Equal(t, Observation{Probe: "miss", Signal: Absent}, obs[1])
	assert.Equal(t, Unknown, obs[2].Signal)
	assert.Equal(t, boom, obs[2].Err)
	assert.True(t, Verdict(obs))
	assert.False(t, Verdict(obs[1:]))
}

func TestWithoutProbes(t *testing.T) {
	d := New(
		WithProbes(fixedProbe("a", true, nil, nil), fixedProbe("b", false, nil, nil)),
		WithoutProbes("a"),
	)
	assert.Equal(t, []string{"b"}, d.Probes())
	assert.False(t, d.Detect())
}

func TestDefaultProbesAreKnown(t *testing.T) {
	names := New().Probes()
	require.NotEmpty(t, names)
	assert.NoError(t, ValidateProbeNames(names))
	assert.Contains(t, names, ProbeDockerSentinel)
	assert.Contains(t, names, ProbeDmesg)
}

func TestValidateProbeNames(t *testing.T) {
	assert.NoError(t, ValidateProbeNames(nil))
	err := ValidateProbeNames([]string{ProbeDmesg, "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "absent", Absent.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestWithLogger(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	var buf bytes.Buffer
	d := New(
		WithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)),
		WithProbes(fixedProbe("quiet", false, nil, nil)),
	)

	// 未调整全局级别时逐项探测日志不输出
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	d.Detect()
	assert.Empty(t, buf.String())

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	d.Detect()
	assert.Contains(t, buf.String(), `"level":"trace"`)
	assert.Contains(t, buf.String(), `"probe":"quiet"`)
	assert.Contains(t, buf.String(), `"signal":"absent"`)
}

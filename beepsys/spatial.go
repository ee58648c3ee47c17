package beepsys

import (
	"math"

	"github.com/rosshoyt/audioengine/audio"
)

// listenerState is the listener transform spatial channels are
// rendered against.
type listenerState struct {
	pos     audio.Vector
	forward audio.Vector
	up      audio.Vector
}

func defaultListener() listenerState {
	return listenerState{
		pos:     audio.Vector{X: 0, Y: 0, Z: -1},
		forward: audio.Vector{X: 0, Y: 0, Z: 1},
		up:      audio.Vector{X: 0, Y: 1, Z: 0},
	}
}

func distance(a, b audio.Vector) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// attenuate implements inverse-distance rolloff: full volume inside
// minDist, then min/d, held at the maxDist floor beyond it.
func attenuate(listener, source audio.Vector, minDist, maxDist float64) float64 {
	if minDist <= 0 {
		minDist = audio.DefaultMinDistance
	}
	if maxDist < minDist {
		maxDist = minDist
	}
	d := distance(listener, source)
	if d <= minDist {
		return 1
	}
	if d >= maxDist {
		d = maxDist
	}
	return minDist / d
}

// panMaxSpread bounds how hard a fully lateral source is panned.
const panMaxSpread = 0.8

// panFor projects the source offset onto the listener's right vector
// (up x forward) and scales by the lateral fraction of the distance.
func panFor(l listenerState, source audio.Vector) float64 {
	d := distance(l.pos, source)
	if d == 0 {
		return 0
	}
	right := cross(l.up, l.forward)
	off := audio.Vector{X: source.X - l.pos.X, Y: source.Y - l.pos.Y, Z: source.Z - l.pos.Z}
	p := dot(off, right) / d * panMaxSpread
	if p < -1 {
		p = -1
	} else if p > 1 {
		p = 1
	}
	return p
}

func cross(a, b audio.Vector) audio.Vector {
	return audio.Vector{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot(a, b audio.Vector) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

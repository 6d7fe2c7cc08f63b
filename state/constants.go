package state

import "math"

type Cost uint32

const (
	INF = Cost(math.MaxUint32)
	// INFM is the largest finite cost.
	INFM = INF - 1
)

var (
	DefaultLinkCost = Cost(1)
	DefaultLatency  = int64(1)
	// MaxSteps bounds a simulation run; a run that has not drained by then is oscillating.
	MaxSteps = 1_000_000
	// MaxPathLen bounds decoded path-vector paths.
	MaxPathLen = 4096
)

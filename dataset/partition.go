// Package dataset holds the labeled/unlabeled partition, the label
// encoders consumed by the multiclass wrapper, and file loaders using the
// -1-means-unlabeled convention.
package dataset

import (
	"errors"
	"fmt"
)

// Origin tags a pseudo-label with the round and the members that proposed it.
type Origin struct {
	Round   int
	Members []int
}

// Proposal stages candidate moves from Unlabeled to Labeled. Indices refer
// to the partition's instance index space. Groups is optional; when set,
// instances sharing a group id are committed or rejected together.
type Proposal struct {
	Indices []int
	Labels  []int
	Groups  []int
	Origin  Origin
}

// Partition tracks the evolving labeled/unlabeled split over one instance
// index space. Every instance belongs to exactly one side at any time and
// moves are one-directional.
type Partition struct {
	X [][]float64
	y []int

	labeled   []int
	unlabeled []int
	origins   map[int]Origin
}

// NewPartition validates the inputs and builds the initial split. Unlabeled
// instances follow the labeled block in the index space.
func NewPartition(XL [][]float64, yL []int, XU [][]float64) (*Partition, error) {
	if len(XL) == 0 {
		return nil, errors.New("labeled set is empty")
	}
	if len(XL) != len(yL) {
		return nil, errors.New("labeled features and labels size mismatch")
	}
	width := len(XL[0])
	for _, row := range XL {
		if len(row) != width {
			return nil, errors.New("labeled feature dimensionality is inconsistent")
		}
	}
	for _, row := range XU {
		if len(row) != width {
			return nil, errors.New("unlabeled feature dimensionality does not match labeled")
		}
	}

	p := &Partition{
		X:       make([][]float64, 0, len(XL)+len(XU)),
		y:       make([]int, 0, len(XL)+len(XU)),
		origins: make(map[int]Origin),
	}
	for i, row := range XL {
		p.X = append(p.X, row)
		p.y = append(p.y, yL[i])
		p.labeled = append(p.labeled, i)
	}
	for i, row := range XU {
		p.X = append(p.X, row)
		p.y = append(p.y, -1)
		p.unlabeled = append(p.unlabeled, len(XL)+i)
	}
	return p, nil
}

// Snapshot returns copies of the current labeled features and labels,
// safe for concurrent member fits.
func (p *Partition) Snapshot() ([][]float64, []int) {
	X := make([][]float64, len(p.labeled))
	y := make([]int, len(p.labeled))
	for i, idx := range p.labeled {
		X[i] = p.X[idx]
		y[i] = p.y[idx]
	}
	return X, y
}

// Unlabeled returns the current unlabeled features and their instance
// indices, in ascending index order.
func (p *Partition) Unlabeled() ([][]float64, []int) {
	X := make([][]float64, len(p.unlabeled))
	idx := make([]int, len(p.unlabeled))
	for i, j := range p.unlabeled {
		X[i] = p.X[j]
		idx[i] = j
	}
	return X, idx
}

func (p *Partition) LabeledCount() int   { return len(p.labeled) }
func (p *Partition) UnlabeledCount() int { return len(p.unlabeled) }

// OriginOf returns the provenance of a pseudo-label, if the instance
// carries one.
func (p *Partition) OriginOf(idx int) (Origin, bool) {
	o, ok := p.origins[idx]
	return o, ok
}

// Commit atomically moves the proposed instances to the labeled side and
// returns how many were admitted. A group whose instances carry conflicting
// labels is rejected whole; an index that is not currently unlabeled
// invalidates the entire proposal.
func (p *Partition) Commit(proposal Proposal) (int, error) {
	if len(proposal.Indices) != len(proposal.Labels) {
		return 0, errors.New("proposal indices and labels size mismatch")
	}
	if proposal.Groups != nil && len(proposal.Groups) != len(proposal.Indices) {
		return 0, errors.New("proposal groups size mismatch")
	}

	pending := make(map[int]bool, len(p.unlabeled))
	for _, idx := range p.unlabeled {
		pending[idx] = true
	}
	for _, idx := range proposal.Indices {
		if !pending[idx] {
			return 0, fmt.Errorf("instance %d is not unlabeled", idx)
		}
	}

	admit := make(map[int]int, len(proposal.Indices))
	if proposal.Groups == nil {
		for i, idx := range proposal.Indices {
			admit[idx] = proposal.Labels[i]
		}
	} else {
		groupLabel := make(map[int]int)
		conflict := make(map[int]bool)
		for i, g := range proposal.Groups {
			if prev, seen := groupLabel[g]; seen && prev != proposal.Labels[i] {
				conflict[g] = true
			} else {
				groupLabel[g] = proposal.Labels[i]
			}
		}
		for i, idx := range proposal.Indices {
			if !conflict[proposal.Groups[i]] {
				admit[idx] = proposal.Labels[i]
			}
		}
	}

	if len(admit) == 0 {
		return 0, nil
	}

	remaining := p.unlabeled[:0]
	for _, idx := range p.unlabeled {
		if label, ok := admit[idx]; ok {
			p.y[idx] = label
			p.labeled = append(p.labeled, idx)
			p.origins[idx] = proposal.Origin
		} else {
			remaining = append(remaining, idx)
		}
	}
	p.unlabeled = remaining
	return len(admit), nil
}

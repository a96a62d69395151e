// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"math"

	"gopkg.in/check.v1"
)

type imputeSuite struct{}

var _ = check.Suite(&imputeSuite{})

func (s *imputeSuite) TestImpute(c *check.C) {
	m, err := NewMatrix(
		[]string{"s1", "s2", "s3"},
		[]string{"a", "b", "c", "d"},
		[]float64{
			4, 0, 2, 8,
			0, 0, 0, 0,
			1, 3, 0, 5,
		})
	c.Assert(err, check.IsNil)

	out, err := Impute(m, 0.5)
	c.Assert(err, check.IsNil)

	// Nonzero entries pass through exactly.
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			if m.At(i, j) != 0 {
				c.Check(out.At(i, j), check.Equals, m.At(i, j))
			}
		}
	}
	// Zeros take scale * row minimum positive.
	c.Check(out.At(0, 1), check.Equals, 1.0) // 0.5 * 2
	c.Check(out.At(2, 2), check.Equals, 0.5) // 0.5 * 1
	// A row with no positive entry is untouched.
	for j := 0; j < 4; j++ {
		c.Check(out.At(1, j), check.Equals, 0.0)
	}
}

func (s *imputeSuite) TestImputeNaN(c *check.C) {
	m, err := NewMatrix([]string{"s1"}, []string{"a", "b"}, []float64{math.NaN(), 4})
	c.Assert(err, check.IsNil)
	out, err := Impute(m, 0.5)
	c.Assert(err, check.IsNil)
	c.Check(out.At(0, 0), check.Equals, 2.0)
	c.Check(out.At(0, 1), check.Equals, 4.0)
}

func (s *imputeSuite) TestImputeBadScale(c *check.C) {
	m, err := NewMatrix([]string{"s1"}, []string{"a"}, []float64{1})
	c.Assert(err, check.IsNil)
	for _, scale := range []float64{0, -1, math.NaN()} {
		_, err = Impute(m, scale)
		c.Check(err, check.Equals, ErrScale)
	}
}

// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genemunge

import (
	"bytes"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"gopkg.in/check.v1"
)

type gctSuite struct{}

var _ = check.Suite(&gctSuite{})

const tinyGCT = `#1.2
3	2
Name	Description	sampleA	sampleB
GENE1	na	1	4
GENE2	na	2	5
GENE3	na	3	6.5
`

func (s *gctSuite) TestReadGCT(c *check.C) {
	m, err := ReadGCT(strings.NewReader(tinyGCT))
	c.Assert(err, check.IsNil)
	c.Check(m.Rows(), check.DeepEquals, []string{"sampleA", "sampleB"})
	c.Check(m.Cols(), check.DeepEquals, []string{"GENE1", "GENE2", "GENE3"})
	c.Check(m.At(0, 0), check.Equals, 1.0)
	c.Check(m.At(1, 2), check.Equals, 6.5)
}

func (s *gctSuite) TestRoundTrip(c *check.C) {
	m, err := ReadGCT(strings.NewReader(tinyGCT))
	c.Assert(err, check.IsNil)
	var buf bytes.Buffer
	c.Assert(WriteGCT(&buf, m), check.IsNil)
	back, err := ReadGCT(&buf)
	c.Assert(err, check.IsNil)
	checkMatrixNear(c, back, m, 0)
}

func (s *gctSuite) TestReadGCTFileGzip(c *check.C) {
	path := c.MkDir() + "/tiny.gct.gz"
	f, err := os.Create(path)
	c.Assert(err, check.IsNil)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(tinyGCT))
	c.Assert(err, check.IsNil)
	c.Assert(gz.Close(), check.IsNil)
	c.Assert(f.Close(), check.IsNil)

	m, err := readGCTFile(path, nil)
	c.Assert(err, check.IsNil)
	c.Check(m.Rows(), check.DeepEquals, []string{"sampleA", "sampleB"})
}

func (s *gctSuite) TestReadGCTBadVersion(c *check.C) {
	_, err := ReadGCT(strings.NewReader("#9.9\n1\t1\nName\tDescription\ts1\ng\tna\t1\n"))
	c.Check(err, check.ErrorMatches, `gct: unsupported version line.*`)
}

func (s *gctSuite) TestReadGCTBadValue(c *check.C) {
	bad := strings.Replace(tinyGCT, "6.5", "x", 1)
	_, err := ReadGCT(strings.NewReader(bad))
	c.Check(err, check.ErrorMatches, `gct: gene "GENE3" sample "sampleB".*`)
}

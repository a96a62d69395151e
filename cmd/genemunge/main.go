// Copyright (C) The Genemunge Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/genemunge/genemunge"
)

func main() {
	genemunge.Main()
}

// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/exomics/txsets"
)

func main() {
	txsets.Main()
}
